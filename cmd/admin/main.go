// Package main provides the admin CLI for the access workflow. It talks to
// the same access service the facade does, using the locally stored session.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"acceso/internal/config"
	"acceso/internal/credentials"
	"acceso/internal/gateway"
	"acceso/internal/models"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := credentials.Open(cfg.AdminSessionFile)
	if err != nil {
		log.Fatalf("Failed to open session file: %v", err)
	}

	gw := gateway.New(cfg.AccessAPIURL, cfg.AccessAPITimeout, store)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "set-session":
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin set-session <token> [name]")
			os.Exit(1)
		}
		name := ""
		if len(os.Args) > 3 {
			name = os.Args[3]
		}
		if err := store.Save(os.Args[2], name); err != nil {
			log.Fatalf("Failed to save session: %v", err)
		}
		fmt.Printf("Session saved (token %s)\n", store.MaskedToken())

	case "session":
		if !store.Configured() {
			fmt.Println("No admin session configured")
			return
		}
		fmt.Printf("Name:  %s\nToken: %s\n", store.Name(), store.MaskedToken())

	case "list":
		status := "pending"
		if len(os.Args) > 2 {
			status = os.Args[2]
		}
		list, err := gw.ListRequests(ctx, status)
		if err != nil {
			log.Fatalf("Failed to list requests: %v", err)
		}
		printRequests(list)

	case "approve":
		decide(ctx, gw, store.Name(), true)

	case "reject":
		decide(ctx, gw, store.Name(), false)

	case "users":
		status := "all"
		if len(os.Args) > 2 {
			status = os.Args[2]
		}
		list, err := gw.ListUsers(ctx, status)
		if err != nil {
			log.Fatalf("Failed to list users: %v", err)
		}
		printUsers(list)

	case "enable":
		setUserStatus(ctx, gw, string(models.UserActive))

	case "disable":
		setUserStatus(ctx, gw, string(models.UserDisabled))

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  admin set-session <token> [name]   - Store the shared admin token")
	fmt.Println("  admin session                      - Show the stored session (token masked)")
	fmt.Println("  admin list [status]                - List requests (default: pending)")
	fmt.Println("  admin approve <id> [note]          - Approve a pending request")
	fmt.Println("  admin reject <id> [note]           - Reject a pending request")
	fmt.Println("  admin users [status]               - List users (default: all)")
	fmt.Println("  admin enable <id>                  - Reactivate a user")
	fmt.Println("  admin disable <id>                 - Disable a user")
}

func decide(ctx context.Context, gw *gateway.Client, adminName string, approve bool) {
	verb := "reject"
	if approve {
		verb = "approve"
	}
	if len(os.Args) < 3 {
		fmt.Printf("Usage: admin %s <id> [note]\n", verb)
		os.Exit(1)
	}
	input := models.DecisionInput{DecidedBy: adminName}
	if len(os.Args) > 3 {
		input.Note = strings.Join(os.Args[3:], " ")
	}

	if approve {
		request, user, err := gw.ApproveRequest(ctx, os.Args[2], input)
		if err != nil {
			log.Fatalf("Failed to approve request: %v", err)
		}
		fmt.Printf("Approved %s (%s)\n", request.ID, request.Email)
		if user != nil {
			fmt.Printf("User %s created, access code %s\n", user.ID, user.AccessCode)
		}
		return
	}

	request, err := gw.RejectRequest(ctx, os.Args[2], input)
	if err != nil {
		log.Fatalf("Failed to reject request: %v", err)
	}
	fmt.Printf("Rejected %s (%s)\n", request.ID, request.Email)
}

func setUserStatus(ctx context.Context, gw *gateway.Client, status string) {
	if len(os.Args) < 3 {
		fmt.Printf("Usage: admin %s <id>\n", os.Args[1])
		os.Exit(1)
	}
	user, err := gw.UpdateUserStatus(ctx, os.Args[2], status)
	if err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}
	fmt.Printf("User %s is now %s\n", user.ID, user.Status)
}

func printRequests(list *models.RequestList) {
	if len(list.Items) == 0 {
		fmt.Println("No requests")
		return
	}
	for _, r := range list.Items {
		line := fmt.Sprintf("%-12s %-10s %-30s %s", r.ID, r.Status, r.Email, r.Name)
		if r.DecisionBy != "" {
			line += fmt.Sprintf("  (decidido por %s)", r.DecisionBy)
		}
		fmt.Println(line)
	}
	fmt.Printf("Total: %d\n", list.Total)
}

func printUsers(list *models.UserList) {
	if len(list.Items) == 0 {
		fmt.Println("No users")
		return
	}
	for _, u := range list.Items {
		fmt.Printf("%-12s %-10s %-30s %s\n", u.ID, u.Status, u.Email, u.AccessCode)
	}
	fmt.Printf("Total: %d\n", list.Total)
}
