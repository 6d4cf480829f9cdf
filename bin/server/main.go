package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/gliderlabs/ssh"
	"github.com/varkas/emberwake/crypto"
	"github.com/varkas/emberwake/game"
	"github.com/varkas/emberwake/storage"

	gossh "golang.org/x/crypto/ssh"
)

func main() {
	iface := flag.String("iface", "127.0.0.1:15000", "Where to listen to SSH connections")
	dir := flag.String("dir", filepath.Join(os.Getenv("HOME"), ".emberwake"), "Where to save database and settings")
	catalogPath := flag.String("catalog", "", "World catalog JSON file (optional, uses the built-in catalog if empty)")

	flag.Parse()

	if err := os.MkdirAll(*dir, 0700); err != nil {
		log.Fatal(err)
	}

	hostKey := crypto.HostKey{
		PrivKeyPath:   filepath.Join(*dir, "private.pem"),
		SSHPubKeyPath: filepath.Join(*dir, "public.pem"),
	}
	if _, err := os.Stat(hostKey.PrivKeyPath); os.IsNotExist(err) {
		if err := hostKey.Generate(); err != nil {
			log.Fatal(err)
		}
		log.Printf("Generated server key pair in %q", *dir)
	} else if err != nil {
		log.Fatal(err)
	}

	pemBytes, err := os.ReadFile(hostKey.PrivKeyPath)
	if err != nil {
		log.Fatal(err)
	}
	signer, err := gossh.ParsePrivateKey(pemBytes)
	if err != nil {
		log.Fatal(err)
	}

	catalog := storage.DefaultCatalog()
	if *catalogPath != "" {
		if catalog, err = storage.LoadCatalog(*catalogPath); err != nil {
			log.Fatal(err)
		}
	}

	store, err := storage.New(*dir, catalog)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	g := game.New(store)

	log.Printf("Listening on %q with public key %q", *iface, gossh.FingerprintSHA256(signer.PublicKey()))
	log.Fatal(ssh.ListenAndServe(*iface, g.HandleSession, ssh.HostKeyPEM(pemBytes)))
}
