package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"hemlist/engine/internal/client"
	"hemlist/engine/internal/list"
	"hemlist/engine/internal/queue"
	"hemlist/engine/internal/transport"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printList(items []list.Item) {
	if len(items) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for _, item := range items {
		mark := " "
		if item.Checked {
			mark = "x"
		}
		fmt.Printf("  [%s] %-30s %s\n", mark, item.Name, item.ID)
	}
}

func usage() {
	fmt.Println(`commands:
  add <name>            add an item
  del <id>              delete an item
  check <id>            check an item off
  uncheck <id>          uncheck an item
  rename <id> <name>    rename an item
  move <id> <from> <to> move an item between positions
  clear                 delete all checked items
  ls                    print the list
  pending               show queued event count
  quit`)
}

func main() {
	hubURL := getenv("HEMLIST_HUB_URL", "http://localhost:8711")
	token := getenv("HEMLIST_SYNC_TOKEN", "hemlist-dev-token")

	ctx := context.Background()

	var persist queue.Persistence
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		rs, err := queue.NewRedisStore(redisURL, getenv("HEMLIST_CLIENT_NAME", "default"))
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer rs.Close()
		persist = rs
	} else {
		persist = queue.NewFileStore(getenv("HEMLIST_OUTBOX_FILE", ".hemlist-outbox.json"))
	}

	outbox, err := queue.NewOutbox(ctx, persist)
	if err != nil {
		log.Fatalf("outbox load failed: %v", err)
	}
	if n := outbox.Len(); n > 0 {
		log.Printf("%d queued events from a previous session", n)
	}

	c := client.New(transport.NewConn(hubURL, token), outbox)
	c.OnChange(func(items []list.Item) {
		fmt.Println("list:")
		printList(items)
	})

	if err := c.Connect(ctx); err != nil {
		log.Printf("offline: %v (edits will queue, retry with 'connect')", err)
	} else {
		log.Printf("connected to %s", hubURL)
	}
	defer c.Disconnect()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			fmt.Print("> ")
			continue
		}
		switch cmd, args := fields[0], fields[1:]; cmd {
		case "add":
			if len(args) == 0 {
				usage()
				break
			}
			id := c.AddItem(ctx, strings.Join(args, " "))
			fmt.Printf("added %s\n", id)
		case "del":
			if len(args) != 1 {
				usage()
				break
			}
			c.DeleteItem(ctx, args[0])
		case "check", "uncheck":
			if len(args) != 1 {
				usage()
				break
			}
			c.SetItemChecked(ctx, args[0], cmd == "check")
		case "rename":
			if len(args) < 2 {
				usage()
				break
			}
			c.RenameItem(ctx, args[0], strings.Join(args[1:], " "))
		case "move":
			if len(args) != 3 {
				usage()
				break
			}
			from, err1 := strconv.Atoi(args[1])
			to, err2 := strconv.Atoi(args[2])
			if err1 != nil || err2 != nil {
				usage()
				break
			}
			c.MoveItem(ctx, args[0], from, to)
		case "clear":
			c.ClearCheckedItems(ctx)
		case "ls":
			printList(c.Items())
		case "pending":
			fmt.Printf("%d queued\n", c.Pending())
		case "connect":
			if err := c.Connect(ctx); err != nil {
				log.Printf("still offline: %v", err)
			} else {
				log.Printf("connected")
			}
		case "quit", "exit":
			return
		default:
			usage()
		}
		fmt.Print("> ")
	}
}
