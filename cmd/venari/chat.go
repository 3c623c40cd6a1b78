package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/venari/internal/app"
	"github.com/ternarybob/venari/internal/services/chat"
)

// cmdChat runs the interactive job-search assistant on stdin. History stays
// in memory for the life of the process.
func cmdChat(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.Chat()
	if err != nil {
		return err
	}
	session := chat.NewSession(svc)

	fmt.Println("Job-search assistant. /reset clears history, /exit quits.")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("venari> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			session.Reset()
			fmt.Println("History cleared.")
			continue
		}

		reply, err := session.Send(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Println(reply)
		fmt.Println()
	}
}
