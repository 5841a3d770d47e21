// ignitectl is the thin control CLI over the ignite authority core. It
// knows only create, list, status, and verify: everything about the
// five-tier hierarchy, canonical signing, and vault layout lives in
// internal/ and is never duplicated here.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/padlokk/ignite/internal/ignconfig"
	"github.com/padlokk/ignite/internal/ignlog"
	"github.com/padlokk/ignite/internal/policy"
	"github.com/padlokk/ignite/internal/vault"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
	Commit    = "unknown"
)

var (
	configPath  = flag.String("config", "", "path to config file")
	noColor     = flag.Bool("no-color", false, "disable colored output")
	showVersion = flag.Bool("version", false, "show version information")
	quiet       = flag.Bool("q", false, "suppress banner")
)

type colors struct {
	Reset   string
	Bold    string
	Dim     string
	Red     string
	Green   string
	Yellow  string
	Cyan    string
	White   string
}

var c colors

func initColors() {
	if *noColor || os.Getenv("NO_COLOR") != "" || !isTerminal() {
		c = colors{}
		return
	}
	c = colors{
		Reset:  "\033[0m",
		Bold:   "\033[1m",
		Dim:    "\033[2m",
		Red:    "\033[31m",
		Green:  "\033[32m",
		Yellow: "\033[33m",
		Cyan:   "\033[36m",
		White:  "\033[37m",
	}
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

const banner = `
%s          ╦╔═╗╔╗╔╦╔╦╗╔═╗%s
%s          ║║ ╦║║║║ ║ ║╣ %s
%s          ╩╚═╝╝╚╝╩ ╩ ╚═╝%s%sctl%s
%s    ───────────────────────%s
%s    Authority key hierarchy%s

`

func printBanner() {
	fmt.Fprintf(os.Stderr, banner,
		c.Cyan+c.Bold, c.Reset,
		c.Cyan+c.Bold, c.Reset,
		c.Cyan+c.Bold, c.Reset, c.Dim, c.Reset,
		c.Dim, c.Reset,
		c.Dim, c.Reset,
	)
}

func printVersion() {
	fmt.Printf("%signitectl%s %s%s%s\n", c.Bold, c.Reset, c.Cyan, Version, c.Reset)
	fmt.Printf("  %sBuild%s       %s\n", c.Dim, c.Reset, BuildTime)
	fmt.Printf("  %sCommit%s      %s\n", c.Dim, c.Reset, Commit)
	fmt.Printf("  %sPlatform%s    %s/%s\n", c.Dim, c.Reset, runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  %sGo%s          %s\n", c.Dim, c.Reset, runtime.Version())
}

func printError(msg string) {
	fmt.Fprintf(os.Stderr, "%s%s ERROR %s %s\n", c.Bold, c.Red, c.Reset, msg)
}

func printSection(title string) {
	fmt.Printf("\n%s%s %s %s\n\n", c.Bold, c.Cyan, title, c.Reset)
}

func usage() {
	fmt.Fprintf(os.Stderr, `%sUSAGE%s
    ignitectl [options] <command> [arguments]

%sCOMMANDS%s
    %screate%s -type <tier> [-parent <fp>] [-creator <name>]
                     Create a new authority key at the given tier
    %slist%s   <tier>
                     List resident keys at a tier
    %sstatus%s [-format text|json|markdown]
                     Report vault health: key expirations, chain integrity
    %sverify%s <path>
                     Verify a proof bundle or manifest file's digest/signature
    %shelp%s          Show this help message
    %sversion%s       Show version information

%sOPTIONS%s
    -config <path>   Path to TOML config file
    -no-color        Disable colored output
    -q               Suppress banner

%sEXAMPLES%s
    ignitectl create -type skull -creator ops
    ignitectl create -type master -parent SHA256:ab12... -creator ops
    ignitectl list distro
    ignitectl status -format json
    ignitectl verify /var/lib/padlokk/ignite/proofs/ab12cd34/2026-07-31T00-00-00Z.json

`,
		c.Bold+c.White, c.Reset,
		c.Bold+c.White, c.Reset,
		c.Cyan, c.Reset,
		c.Cyan, c.Reset,
		c.Cyan, c.Reset,
		c.Cyan, c.Reset,
		c.Cyan, c.Reset,
		c.Cyan, c.Reset,
		c.Bold+c.White, c.Reset,
		c.Bold+c.White, c.Reset,
	)
}

func loadConfig() *ignconfig.Config {
	cfg, err := ignconfig.Load(*configPath)
	if err != nil {
		printError(fmt.Sprintf("loading config: %v", err))
		os.Exit(1)
	}
	return cfg
}

func openVault(cfg *ignconfig.Config) *vault.Vault {
	v := vault.Open(cfg.DataRoot).WithLogger(ignlog.New(ignlog.Config{Component: "ignitectl"}))
	if err := v.EnsureLayout(); err != nil {
		printError(fmt.Sprintf("preparing vault at %s: %v", cfg.DataRoot, err))
		os.Exit(1)
	}
	return v
}

func buildPolicyEngine(cfg *ignconfig.Config) *policy.Engine {
	common, err := ignconfig.LoadCommonPasswords(cfg.CommonPasswordsPath)
	if err != nil {
		printError(fmt.Sprintf("loading common passwords list: %v", err))
		os.Exit(1)
	}
	return policy.NewEngine(policy.NewExpirationPolicy(), policy.NewPassphraseStrengthPolicy(common))
}

func main() {
	flag.Parse()
	initColors()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if flag.NArg() < 1 {
		if !*quiet {
			printBanner()
		}
		usage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	if !*quiet && cmd != "help" && cmd != "version" {
		printBanner()
	}

	switch cmd {
	case "create":
		cmdCreate(flag.Args()[1:])
	case "list":
		if flag.NArg() < 2 {
			printError("Usage: ignitectl list <tier>")
			os.Exit(1)
		}
		cmdList(flag.Args()[1:])
	case "status":
		cmdStatus(flag.Args()[1:])
	case "verify":
		if flag.NArg() < 2 {
			printError("Usage: ignitectl verify <path>")
			os.Exit(1)
		}
		cmdVerify(flag.Args()[1:])
	case "help":
		if !*quiet {
			printBanner()
		}
		usage()
	case "version":
		printVersion()
	default:
		printError(fmt.Sprintf("Unknown command: %s", cmd))
		usage()
		os.Exit(1)
	}
}
