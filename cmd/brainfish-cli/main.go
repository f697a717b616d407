// Package main implements an interactive debugging console for the
// engine: analyze positions, query and teach the opening book, and send
// raw protocol commands.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"brainfish/internal/board"
	"brainfish/internal/book"
	"brainfish/internal/config"
	"brainfish/internal/engine"
	"brainfish/internal/search"
	"brainfish/internal/storage"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// ANSI colors, blanked when stdout is not a terminal
var (
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	flag.StringVar(&cfg.BookPath, "book-path", cfg.BookPath, "Path to SQLite opening-book file")
	flag.StringVar(&cfg.EnginePath, "engine-path", cfg.EnginePath, "Path to an external UCI engine binary")
	flag.Parse()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		colorRed, colorCyan, colorYellow, colorReset = "", "", "", ""
	}

	eng, cleanup, err := buildEngine(cfg)
	if err != nil {
		fmt.Printf("%sFailed to start: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}
	defer cleanup()

	if !eng.Initialize() {
		fmt.Printf("%sFailed to initialize engine%s\n", colorRed, colorReset)
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          colorCyan + "brainfish> " + colorReset,
		HistoryFile:     ".brainfish_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("%s%s%s\n", colorRed, err.Error(), colorReset)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Printf("%sBrainFish Debug Console%s\n", colorCyan, colorReset)
	fmt.Printf("Book entries: %d\n", eng.BookSize())
	fmt.Printf("Type 'help' for commands\n\n")

	for {
		line, err := rl.Readline()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" || line == "x" {
			break
		}

		execute(eng, line)
	}
}

func execute(eng *engine.Engine, line string) {
	fields := strings.Fields(line)

	switch fields[0] {
	case "help":
		showHelp()

	case "analyze":
		if len(fields) < 3 {
			usage("analyze <depth> <fen>")
			return
		}
		depth, err := strconv.Atoi(fields[1])
		if err != nil {
			usage("analyze <depth> <fen>")
			return
		}
		fmt.Print(eng.AnalyzePosition(strings.Join(fields[2:], " "), depth))

	case "bestmove":
		if len(fields) < 3 {
			usage("bestmove <time-ms> <fen>")
			return
		}
		timeMs, err := strconv.Atoi(fields[1])
		if err != nil {
			usage("bestmove <time-ms> <fen>")
			return
		}
		fmt.Print(eng.GetBestMove(strings.Join(fields[2:], " "), timeMs))

	case "book":
		executeBook(eng, fields[1:])

	case "board":
		fen := board.StartingFEN
		if len(fields) > 1 {
			fen = strings.Join(fields[1:], " ")
		}
		b, err := board.ParseFEN(fen)
		if err != nil {
			fmt.Printf("%s%v%s\n", colorRed, err, colorReset)
			return
		}
		fmt.Println(b.ToASCII())

	default:
		// Raw protocol passthrough
		fmt.Print(eng.ProcessCommand(line))
	}
}

func executeBook(eng *engine.Engine, args []string) {
	if len(args) == 0 {
		usage("book get <fen> | book set <move> <fen> | book size")
		return
	}

	switch args[0] {
	case "get":
		if len(args) < 2 {
			usage("book get <fen>")
			return
		}
		move := eng.QueryOpeningBook(strings.Join(args[1:], " "))
		if move == "" {
			fmt.Printf("%s(no book entry)%s\n", colorYellow, colorReset)
			return
		}
		fmt.Println(move)

	case "set":
		if len(args) < 3 {
			usage("book set <move> <fen>")
			return
		}
		if !eng.UpdateOpeningBook(strings.Join(args[2:], " "), args[1]) {
			fmt.Printf("%sinvalid fen%s\n", colorRed, colorReset)
			return
		}
		fmt.Println("ok")

	case "size":
		fmt.Println(eng.BookSize())

	default:
		usage("book get <fen> | book set <move> <fen> | book size")
	}
}

func showHelp() {
	fmt.Println("Commands:")
	fmt.Println("  analyze <depth> <fen>     analyze a position")
	fmt.Println("  bestmove <time-ms> <fen>  best move for a position")
	fmt.Println("  book get <fen>            look up the opening book")
	fmt.Println("  book set <move> <fen>     teach the opening book")
	fmt.Println("  book size                 number of book entries")
	fmt.Println("  board [fen]               show an ASCII board")
	fmt.Println("  uci | isready | ...       raw protocol passthrough")
	fmt.Println("  exit                      leave the console")
}

func usage(s string) {
	fmt.Printf("%sUsage: %s%s\n", colorYellow, s, colorReset)
}

func buildEngine(cfg config.Config) (*engine.Engine, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	seeders := book.MultiSeeder{book.StaticSeeder{}}
	var rec engine.Recorder

	if cfg.BookPath != "" {
		store, err := storage.NewStore(cfg.BookPath, false)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { store.Close() })
		if err := store.InitDB(); err != nil {
			cleanup()
			return nil, nil, err
		}
		seeders = append(seeders, store)
		rec = store
	}

	var adapter search.Adapter = search.NewMaterial()
	if cfg.EnginePath != "" {
		uci, err := search.NewUCI(cfg.EnginePath)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { uci.Close() })
		adapter = uci
	}

	eng := engine.New(engine.Config{
		Name:   cfg.EngineName,
		Author: cfg.EngineAuthor,
	}, seeders, adapter, rec)

	return eng, cleanup, nil
}
