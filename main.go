package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var code int
	switch os.Args[1] {
	case "embed":
		code = runEmbed(os.Args[2:])
	case "extract":
		code = runExtract(os.Args[2:])
	case "compare":
		code = runCompare(os.Args[2:])
	case "serve":
		code = runServe(os.Args[2:])
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		code = 2
	}
	os.Exit(code)
}

func usage() {
	fmt.Fprint(os.Stderr, `pixveil hides short text messages inside images.

Usage:
  pixveil embed   -in cover.png -msg "text" [-key k] [-out stego.png]
  pixveil extract -in stego.png [-key k]
  pixveil compare -a cover.png -b stego.png [-json]
  pixveil serve   [-config pixveil.yml] [-addr 127.0.0.1:8080]
`)
}

func runEmbed(args []string) int {
	fs := flag.NewFlagSet("embed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	in := fs.String("in", "", "cover image (png, bmp, qoi; jpeg and gif accepted)")
	out := fs.String("out", "", "stego output path (default stego-<name>.png beside the input)")
	msg := fs.String("msg", "", "message text to hide")
	msgFile := fs.String("msg-file", "", "read the message from this file instead of -msg")
	key := fs.String("key", "", "optional key protecting the message")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *in == "" {
		fmt.Fprintln(os.Stderr, "embed: -in is required")
		return 2
	}
	message := *msg
	if *msgFile != "" {
		data, err := os.ReadFile(*msgFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "embed:", err)
			return 1
		}
		message = string(data)
	}
	if message == "" {
		fmt.Fprintln(os.Stderr, "embed: empty message (use -msg or -msg-file)")
		return 2
	}

	cover, err := LoadPixmap(*in)
	if err != nil {
		fmt.Fprintln(os.Stderr, "embed:", err)
		return 1
	}
	stego, err := EmbedMessage(cover, message, *key, DefaultParams())
	if err != nil {
		fmt.Fprintln(os.Stderr, "embed:", err)
		return 1
	}

	outPath := *out
	if outPath == "" {
		outPath = defaultStegoPath(*in)
	}
	if err := SavePixmap(outPath, stego); err != nil {
		fmt.Fprintln(os.Stderr, "embed:", err)
		return 1
	}
	fmt.Printf("Embedded %d bytes → %s\n", len(message), outPath)
	return 0
}

// defaultStegoPath keeps the output next to the cover, always as PNG.
func defaultStegoPath(in string) string {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	return filepath.Join(filepath.Dir(in), "stego-"+base+".png")
}

func runExtract(args []string) int {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	in := fs.String("in", "", "stego image to read")
	key := fs.String("key", "", "key used at embed time, if any")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *in == "" {
		fmt.Fprintln(os.Stderr, "extract: -in is required")
		return 2
	}

	stego, err := LoadPixmap(*in)
	if err != nil {
		fmt.Fprintln(os.Stderr, "extract:", err)
		return 1
	}
	text, err := ExtractMessage(stego, *key, DefaultParams())
	if err != nil {
		fmt.Fprintln(os.Stderr, "extract:", err)
		return 1
	}
	fmt.Println(text)
	return 0
}

func runCompare(args []string) int {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	a := fs.String("a", "", "original image")
	b := fs.String("b", "", "stego image")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *a == "" || *b == "" {
		fmt.Fprintln(os.Stderr, "compare: -a and -b are required")
		return 2
	}

	orig, err := LoadPixmap(*a)
	if err != nil {
		fmt.Fprintln(os.Stderr, "compare:", err)
		return 1
	}
	stego, err := LoadPixmap(*b)
	if err != nil {
		fmt.Fprintln(os.Stderr, "compare:", err)
		return 1
	}
	rep, err := Evaluate(orig, stego)
	if err != nil {
		fmt.Fprintln(os.Stderr, "compare:", err)
		return 1
	}
	if *asJSON {
		data, err := json.Marshal(rep)
		if err != nil {
			fmt.Fprintln(os.Stderr, "compare:", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}
	fmt.Println(rep)
	return 0
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cfgPath := fs.String("config", "", "YAML config file")
	addr := fs.String("addr", "", "listen address (overrides the config file)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := DefaultServeConfig()
	if *cfgPath != "" {
		var err error
		if cfg, err = LoadServeConfig(*cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, "serve:", err)
			return 1
		}
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	level, err := cfg.slogLevel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "serve:", err)
		return 1
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	srv, err := NewServer(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "serve:", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("serve", "err", err)
		return 1
	}
	return 0
}
