package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/padlokk/ignite/internal/authoritykey"
	"github.com/padlokk/ignite/internal/fingerprint"
	"github.com/padlokk/ignite/internal/ignition"
	"github.com/padlokk/ignite/internal/keymaterial"
	"github.com/padlokk/ignite/internal/keytype"
	"github.com/padlokk/ignite/internal/proof"
)

func cmdCreate(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	typeFlag := fs.String("type", "", "key tier: skull|master|repo|ignition|distro")
	parentFlag := fs.String("parent", "", "fingerprint of the controlling parent (required for every tier but skull)")
	creatorFlag := fs.String("creator", "", "creator label recorded in metadata")
	descriptionFlag := fs.String("description", "", "free-text description recorded in metadata")
	purposeFlag := fs.String("purpose", "issuance", "purpose recorded on the authority claim signed for this key")
	if err := fs.Parse(args); err != nil {
		printError(fmt.Sprintf("parsing flags: %v", err))
		os.Exit(1)
	}

	kt, err := keytype.FromString(*typeFlag)
	if err != nil {
		printError(fmt.Sprintf("invalid -type: %v", err))
		os.Exit(1)
	}

	cfg := loadConfig()
	v := openVault(cfg)
	engine := buildPolicyEngine(cfg)
	now := time.Now().UTC()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		printError(fmt.Sprintf("generating key material: %v", err))
		os.Exit(1)
	}
	material, err := keymaterial.New(pub, priv, keymaterial.Ed25519)
	if err != nil {
		printError(fmt.Sprintf("building key material: %v", err))
		os.Exit(1)
	}

	childKey := authoritykey.New(material, kt, authoritykey.Metadata{
		CreationTime: now,
		Creator:      *creatorFlag,
		Description:  *descriptionFlag,
	})
	if err := engine.ApplyKeyDefaults(childKey); err != nil {
		printError(fmt.Sprintf("applying key defaults: %v", err))
		os.Exit(1)
	}
	if err := engine.ValidateKey(childKey); err != nil {
		printError(fmt.Sprintf("validating key: %v", err))
		os.Exit(1)
	}

	var (
		parentFP      fingerprint.Fingerprint
		parentSigner  ed25519.PrivateKey
		ancestorChain []fingerprint.Fingerprint
		havePTSigner  bool
	)

	parentType, parentRequired := kt.ParentType()
	if *parentFlag == "" && parentRequired {
		printError(fmt.Sprintf("-parent is required for tier %q", kt))
		os.Exit(1)
	}
	if *parentFlag != "" {
		if !parentRequired {
			printError(fmt.Sprintf("tier %q has no parent tier, -parent is not accepted", kt))
			os.Exit(1)
		}
		parentFP, err = fingerprint.FromString(*parentFlag)
		if err != nil {
			printError(fmt.Sprintf("invalid -parent: %v", err))
			os.Exit(1)
		}

		if parentType.IsIgnitionKey() {
			parentIgnKey, err := v.LoadIgnitionKey(parentType, parentFP)
			if err != nil {
				printError(fmt.Sprintf("loading parent key: %v", err))
				os.Exit(1)
			}
			passphrase, err := promptPassphrase(fmt.Sprintf("Passphrase for parent %s: ", parentFP.Short()), false)
			if err != nil {
				printError(err.Error())
				os.Exit(1)
			}
			parentMaterial, err := parentIgnKey.Unlock(passphrase, now)
			if err != nil {
				printError(fmt.Sprintf("unlocking parent key: %v", err))
				os.Exit(1)
			}
			defer wipeMaterial(parentMaterial)
			if err := v.SaveIgnitionKey(parentFP, parentIgnKey); err != nil {
				printError(fmt.Sprintf("persisting parent unlock bookkeeping: %v", err))
				os.Exit(1)
			}
			parentSigner, err = parentMaterial.SigningKey()
			if err != nil {
				printError(fmt.Sprintf("parent cannot sign: %v", err))
				os.Exit(1)
			}
			havePTSigner = true
			ancestorChain = append(append([]fingerprint.Fingerprint{}, parentIgnKey.AuthorityChain...), parentFP)
		} else {
			parentAuthKey, err := v.LoadAuthorityKey(parentType, parentFP)
			if err != nil {
				printError(fmt.Sprintf("loading parent key: %v", err))
				os.Exit(1)
			}
			if err := parentAuthKey.AddChild(childKey.Fingerprint, kt); err != nil {
				printError(fmt.Sprintf("recording child under parent: %v", err))
				os.Exit(1)
			}
			if err := v.SaveAuthorityKey(parentAuthKey); err != nil {
				printError(fmt.Sprintf("persisting parent: %v", err))
				os.Exit(1)
			}
			parentSigner, err = parentAuthKey.Material.SigningKey()
			if err != nil {
				printError(fmt.Sprintf("parent cannot sign: %v", err))
				os.Exit(1)
			}
			havePTSigner = true
			ancestorChain = []fingerprint.Fingerprint{parentFP}
		}
	}

	if kt.IsIgnitionKey() {
		passphrase, err := promptPassphrase(fmt.Sprintf("Passphrase for new %s key: ", kt), true)
		if err != nil {
			printError(err.Error())
			os.Exit(1)
		}
		ignKey, err := ignition.Create(passphrase, material, kt, ancestorChain, engine, now)
		if err != nil {
			printError(fmt.Sprintf("sealing key: %v", err))
			os.Exit(1)
		}
		if err := v.SaveIgnitionKey(childKey.Fingerprint, ignKey); err != nil {
			printError(fmt.Sprintf("persisting key: %v", err))
			os.Exit(1)
		}
	} else {
		if err := v.SaveAuthorityKey(childKey); err != nil {
			printError(fmt.Sprintf("persisting key: %v", err))
			os.Exit(1)
		}
	}

	if havePTSigner {
		claim, err := proof.NewAuthorityClaim(parentFP, childKey.Fingerprint, *purposeFlag)
		if err != nil {
			printError(fmt.Sprintf("building authority claim: %v", err))
			os.Exit(1)
		}
		expiresAt := now.Add(time.Duration(cfg.DefaultProofTTLHours) * time.Hour)
		bundle, err := proof.SignClaim(claim, parentSigner, expiresAt)
		if err != nil {
			printError(fmt.Sprintf("signing authority claim: %v", err))
			os.Exit(1)
		}
		if err := v.SaveProof(parentFP, now, bundle); err != nil {
			printError(fmt.Sprintf("persisting proof: %v", err))
			os.Exit(1)
		}
	}

	printSection(fmt.Sprintf("created %s key", kt))
	fmt.Printf("  fingerprint  %s\n", childKey.Fingerprint)
	fmt.Printf("  short        %s\n", childKey.Fingerprint.Short())
	if *parentFlag != "" {
		fmt.Printf("  parent       %s\n", parentFP)
	}
	fmt.Printf("  path         %s\n", v.KeyPath(kt, childKey.Fingerprint))
}

func wipeMaterial(m keymaterial.Material) {
	for i := range m.Private {
		m.Private[i] = 0
	}
}
