// Command adminctl provisions admin accounts for the school media server.
// It prompts for a password on the terminal, hashes it with bcrypt, and
// inserts the account directly into the database.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/term"

	"schoolmedia/internal/server/auth"
	"schoolmedia/internal/server/models"
	"schoolmedia/internal/server/repositories/repomanager"
)

func main() {
	dsn := flag.String("d", "", "database DSN")
	userName := flag.String("u", "", "admin user name")
	flag.Parse()

	if *dsn == "" || *userName == "" {
		flag.Usage()
		os.Exit(2)
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		log.Fatalf("password read error: %v", err)
	}
	if len(password) == 0 {
		log.Fatal("password must not be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("password hash error: %v", err)
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("db migration error: %v", err)
	}

	user, err := rm.Users(db).Create(ctx, &models.User{UserName: *userName, PasswordHash: hash})
	if err != nil {
		log.Fatalf("admin create error: %v", err)
	}

	fmt.Printf("admin %q created (id %s)\n", user.UserName, user.ID)
}
