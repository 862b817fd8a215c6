// Command comicls opens an image container or directory and prints its
// flattened image sequence.
//
// Usage:
//
//	comicls [-password pw] [-keys] [-v] path
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hollowleaf/comicsource"
)

type config struct {
	password string
	keys     bool
	verbose  bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.password, "password", "", "container password")
	flag.BoolVar(&cfg.keys, "keys", false, "print identity keys")
	flag.BoolVar(&cfg.verbose, "v", false, "enable debug logging and phase reporting")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: comicls [flags] path")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(context.Background(), flag.Arg(0), cfg); err != nil {
		fmt.Fprintln(os.Stderr, "comicls:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string, cfg config) error {
	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := []comicsource.Option{
		comicsource.WithLogger(logger),
	}
	if cfg.password != "" {
		opts = append(opts, comicsource.WithPassword(cfg.password))
	}
	if cfg.verbose {
		opts = append(opts, comicsource.WithPhaseFunc(func(p comicsource.Phase) {
			fmt.Fprintln(os.Stderr, "phase:", p)
		}))
	}

	src, err := comicsource.Open(ctx, path, opts...)
	if err != nil {
		if src != nil {
			src.Close()
		}
		switch {
		case errors.Is(err, comicsource.ErrPasswordRequired):
			return errors.New("container is password protected; retry with -password")
		case errors.Is(err, comicsource.ErrWrongPassword):
			return errors.New("incorrect password")
		default:
			return err
		}
	}
	defer src.Close()

	fmt.Printf("%s: %d images\n", src.Name(), src.Count())
	if comp, ok := src.(*comicsource.CompositeImageSource); ok {
		for _, seg := range comp.Segments() {
			fmt.Printf("  segment %q: %d images\n", seg.Name(), seg.Source().Count())
		}
	}

	for i := 0; i < src.Count(); i++ {
		rel, err := src.RelativePath(i)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%4d  %s", i, rel)

		if format, err := src.ImageFormat(i); err == nil {
			line += "  " + format
		}
		if size, err := src.FileSize(i); err == nil {
			line += fmt.Sprintf("  %d bytes", size)
		}
		if dim, err := src.ImageSize(i); err == nil {
			line += fmt.Sprintf("  %dx%d", dim.Width, dim.Height)
		}
		if cfg.keys {
			if key, err := src.ImageFileKey(i); err == nil {
				line += "  " + key
			}
		}
		fmt.Println(line)
	}

	if cfg.keys {
		if key, err := src.FileKey(); err == nil {
			fmt.Println("source key:", key)
		}
	}
	return nil
}
