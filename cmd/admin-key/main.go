package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/playmatatu/tablephysics/internal/admin"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	key := os.Getenv("ADMIN_KEY")
	if len(os.Args) > 1 {
		key = os.Args[1]
	}
	if key == "" {
		log.Fatal("usage: admin-key <key>  (or set ADMIN_KEY)")
	}
	if len(key) < 12 {
		log.Printf("WARNING: admin key is shorter than 12 characters")
	}

	hash, err := admin.HashAdminKey(key)
	if err != nil {
		log.Fatalf("Failed to hash admin key: %v", err)
	}
	if !admin.VerifyAdminKey(hash, key) {
		log.Fatal("Hash does not verify")
	}

	log.Println("✓ Admin key hashed. Add this to your environment:")
	fmt.Printf("ADMIN_KEY_HASH=%s\n", hash)
}
