// Package main implements decodetrace, a CLI that drives a schemaguard
// LogitProcessor through a scripted token stream against a draft-07 schema
// file, optionally printing one line per decode step (token, id, and how
// many logits the mask left finite), and prints a colorized error or
// validation result. It exists to exercise the decoding core end-to-end
// without a real model.
//
// Usage:
//
//	decodetrace -schema schema.json -text '{"name":"Ada","age":36}'
//
// Flags:
//
//	-schema string   Path to a draft-07 JSON schema file
//	-text string     The target JSON document to replay token-by-token
//	-verbose         Print every decode step (without it no step is printed)
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/goccy/go-json"

	"github.com/tokentrie/schemaguard"
	"github.com/tokentrie/schemaguard/pkg/vocabtok"
)

var (
	schemaPath = flag.String("schema", "", "path to a draft-07 JSON schema file")
	targetText = flag.String("text", "", "target JSON document to replay token-by-token")
	verbose    = flag.Bool("verbose", false, "print every decode step")
	help       = flag.Bool("help", false, "show help message")
)

func main() {
	flag.Parse()

	if *help || *schemaPath == "" || *targetText == "" {
		showHelp()
		if *help {
			return
		}
		os.Exit(1)
	}

	data, err := os.ReadFile(*schemaPath)
	if err != nil {
		log.Fatalf("read schema: %v", err)
	}

	var draft schemaguard.DraftSchema
	if err := json.Unmarshal(data, &draft); err != nil {
		log.Fatalf("parse schema: %v", err)
	}

	compiler := schemaguard.NewDraftCompiler(nil)
	node, err := draft.Compile(compiler)
	if err != nil {
		log.Fatalf("compile schema: %v", err)
	}

	tok := vocabtok.New(vocabPieces(*targetText), true)
	tokens := tok.Encode(*targetText, false)

	proc := schemaguard.NewLogitProcessor(node, tok, nil, nil, nil, nil)
	if err := proc.OnPrompt(nil); err != nil {
		log.Fatalf("on_prompt: %v", err)
	}

	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	bold.Println("decodetrace")
	for i, t := range tokens {
		logits := make([]float32, tok.VocabSize())
		out := proc.ProcessLogits(logits)

		if *verbose {
			fmt.Printf("step %3d: token %q id=%d finite_logits=%d\n", i, tok.DecodeOne(t), t, countFinite(out))
		}

		proc.OnSampledToken(t)

		if err := proc.Err(); err != nil {
			red.Printf("step %3d: error: %s\n", i, err.Error())
			os.Exit(1)
		}
	}

	result := schemaguard.Validate(*targetText, node)
	if result.Valid {
		green.Println("validation: OK")
	} else {
		yellow.Printf("validation: %s\n", result.Err.Error())
	}
}

// vocabPieces builds a piece set covering every character of text, so the
// reference tokenizer can always tokenize it.
func vocabPieces(text string) []string {
	seen := make(map[string]struct{})
	var pieces []string
	for _, r := range text {
		s := string(r)
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			pieces = append(pieces, s)
		}
	}
	return pieces
}

func countFinite(logits []float32) int {
	n := 0
	for _, v := range logits {
		if v == v && v < 1e30 && v > -1e30 {
			n++
		}
	}
	return n
}

func showHelp() {
	fmt.Println("decodetrace: replay a JSON document through a schema-constrained logit processor")
	flag.PrintDefaults()
}
