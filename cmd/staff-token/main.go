// Command staff-token prints a signed access token for a station agent or
// company administrator.  It signs with JWT_SECRET, read from the
// environment or a .env file.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/iliyamo/transport-ticketing/internal/middleware"
	"github.com/iliyamo/transport-ticketing/internal/utils"
)

func main() {
	user := pflag.String("user", "", "subject of the token (required)")
	role := pflag.String("role", middleware.RoleAgent, "AGENT or ADMIN")
	company := pflag.String("company", "", "company the holder sells for")
	agency := pflag.String("agency", "", "agency the holder sells at (required for AGENT)")
	ttl := pflag.Duration("ttl", 12*time.Hour, "token lifetime")
	pflag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	switch {
	case secret == "":
		log.Fatal("JWT_SECRET is not set")
	case *user == "":
		log.Fatal("--user is required")
	case *role != middleware.RoleAgent && *role != middleware.RoleAdmin:
		log.Fatalf("unknown role %q", *role)
	case *role == middleware.RoleAgent && (*company == "" || *agency == ""):
		log.Fatal("agents need --company and --agency")
	}

	tok, err := utils.NewAccessToken(secret, *user, *role, *company, *agency, *ttl)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
}
