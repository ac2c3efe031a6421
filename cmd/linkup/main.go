// Command linkup runs a single search from the terminal. Configuration comes
// from the environment (optionally a .env file); see linkup.LoadConfig.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	linkup "github.com/linkup-platform/linkup-go"
)

func main() {
	depth := flag.String("depth", "standard", "search depth: standard or deep")
	output := flag.String("output", "searchResults", "output type: sourcedAnswer or searchResults")
	timeout := flag.Duration("timeout", 60*time.Second, "overall timeout")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: linkup [flags] <query>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	query := flag.Arg(0)

	_ = godotenv.Load()

	client, err := linkup.NewClientFromEnv()
	if err != nil {
		log.Fatalf("configure client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := client.Search(ctx, linkup.SearchRequest{
		Query:      query,
		Depth:      linkup.SearchDepth(*depth),
		OutputType: linkup.OutputType(*output),
	})
	if err != nil {
		log.Fatalf("search: %v", err)
	}

	switch resp.OutputType {
	case linkup.OutputSourcedAnswer:
		fmt.Println(resp.SourcedAnswer.Answer)
		for _, source := range resp.SourcedAnswer.Sources {
			fmt.Printf("  - %s (%s)\n", source.Name, source.URL)
		}
	case linkup.OutputSearchResults:
		for _, result := range resp.SearchResults.Results {
			fmt.Printf("%s\n%s\n%s\n\n", result.Name, result.URL, result.Content)
		}
	default:
		fmt.Printf("%s\n", resp.Structured)
	}
}
