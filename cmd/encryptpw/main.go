// Command encryptpw encrypts portal passwords with the configured key.
//
//	encryptpw -f Cube_MdRzA_Kennwort.txt        encrypt the first data row in place
//	encryptpw -f Cube_MdRzA_Kennwort.txt -all   encrypt every data row
//	encryptpw                                   read one password, print the ciphertext
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/mdrzasync/internal/config"
	"github.com/dmitrijs2005/mdrzasync/internal/cryptox"
	"github.com/dmitrijs2005/mdrzasync/internal/flagx"
	"github.com/dmitrijs2005/mdrzasync/internal/tools"
	"golang.org/x/term"
)

func main() {
	fs := flag.NewFlagSet("encryptpw", flag.ExitOnError)
	file := fs.String("f", "", "password export to encrypt in place")
	all := fs.Bool("all", false, "encrypt every data row instead of the first one")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-f", "--f", "-all", "--all", "-h", "-help", "--help"}))

	cfg, err := config.LoadConfig(config.FilterArgs(os.Args[1:]))
	if err != nil {
		log.Fatalf("%v", err)
	}
	if cfg.EncryptionKey == "" {
		log.Fatal("encryption key is not set (ENCRYPTION_KEY or -k)")
	}

	codec, err := cryptox.NewCodec(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if *file != "" {
		n, err := tools.EncryptPasswordFile(*file, codec, *all)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Printf("%d password(s) encrypted in %s\n", n, *file)
		return
	}

	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		log.Fatalf("read password: %v", err)
	}

	enc, err := codec.Encrypt(string(pw))
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println(enc)
}
