// Command demoserver runs a small shop with seeded accessibility defects.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/raysh454/a11yscan/internal/demoserver"
	"github.com/raysh454/a11yscan/internal/logging"
)

func main() {
	cfg := demoserver.DefaultConfig()

	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("===========================================")
	fmt.Println("   a11yscan demo site")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Every page ships with known accessibility defects")
	fmt.Println("and a fixed version you can switch to on the fly.")
	fmt.Println()
	fmt.Println("Seeded defects:")
	for _, p := range demoserver.GetAllPages() {
		fmt.Printf("  %-18s %v\n", p.Path, p.Defects)
	}
	fmt.Println()
	fmt.Printf("Sign in with %s / %s to reach /account.\n", cfg.Username, cfg.Password)
	fmt.Println()

	server := demoserver.NewDemoServer(cfg, logging.NewStdoutLogger("demoserver"))
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
