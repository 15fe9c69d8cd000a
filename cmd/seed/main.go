package main

import (
	"log"
	"os"
	"time"

	"byteme-assistant-be/internal/model"
	"byteme-assistant-be/pkg/database"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	seedUsers(db)
	seedDocuments(db)

	log.Println("✅ Seeding completed.")
}

type demoUser struct {
	email    string
	fullName string
	role     string
	domains  []string
}

// seedUsers creates accounts with different domain grants so the
// fail-closed routing can be exercised out of the box.
func seedUsers(db *gorm.DB) {
	log.Println("Seeding demo users (password: password123)...")

	users := []demoUser{
		{"admin@byteme.example", "Avery Admin", "admin", []string{"it", "dev", "hr"}},
		{"devon@byteme.example", "Devon Engineer", "user", []string{"it", "dev"}},
		{"harper@byteme.example", "Harper PeopleOps", "user", []string{"it", "hr"}},
		{"izzy@byteme.example", "Izzy Contractor", "user", []string{"it"}},
	}

	for _, u := range users {
		var existing model.User
		if err := db.Where("email = ?", u.email).First(&existing).Error; err == nil {
			log.Printf("User '%s' already exists, skipping...", u.email)
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Error hashing password: %v", err)
		}
		hashStr := string(hash)
		now := time.Now()

		user := model.User{
			Email:           u.email,
			PasswordHash:    &hashStr,
			FullName:        u.fullName,
			Role:            u.role,
			Status:          "active",
			EmailVerified:   true,
			EmailVerifiedAt: &now,
			AllowedDomains:  datatypes.NewJSONSlice(u.domains),
		}
		if err := db.Create(&user).Error; err != nil {
			log.Printf("Error creating user '%s': %v", u.email, err)
		} else {
			log.Printf("Created user: %s (domains: %v)", u.email, u.domains)
		}
	}
}

// seedDocuments loads a small knowledge base covering every domain. The
// rows land in 'pending' state; the ingestion consumer embeds them when
// re-ingestion is triggered through the API.
func seedDocuments(db *gorm.DB) {
	log.Println("Seeding knowledge base documents...")

	var admin model.User
	if err := db.Where("email = ?", "admin@byteme.example").First(&admin).Error; err != nil {
		log.Printf("Admin user missing, skipping document seed: %v", err)
		return
	}

	docs := []model.Document{
		{
			Title:  "VPN Access Guide",
			Domain: "it",
			Content: `All remote access to internal systems goes through the corporate VPN.
Install the GlobalConnect client from the software portal, then sign in with your
directory credentials and approve the MFA prompt. The client auto-selects the nearest
gateway; choose "Office-EU" manually only when told to by the service desk.

If the tunnel fails to establish, first check that your system clock is correct, then
restart the client. Persistent failures after two retries should go to the service
desk as a P3 ticket with the client log attached. VPN sessions expire after 12 hours
and the client reconnects automatically on the next network operation.`,
		},
		{
			Title:  "Password and MFA Policy",
			Domain: "it",
			Content: `Passwords must be at least 14 characters and are checked against a
breached-password list at change time. Passwords do not expire on a schedule; a reset
is forced only on suspected compromise. Repeating or sequential characters are allowed,
dictionary words are not blocked, length is what matters.

Multi-factor authentication is mandatory for every account. The approved factors are
the company authenticator app and FIDO2 hardware keys. SMS codes are not an approved
factor and were retired last year. Losing a hardware key must be reported to the
service desk within 24 hours so the key can be revoked.`,
		},
		{
			Title:  "Service Deployment Runbook",
			Domain: "dev",
			Content: `Deployments to production run through the pipeline only, never by hand.
Merging to main triggers build, tests and a staging rollout; production promotion
requires a manual approval in the pipeline UI from a code owner. Canary weight starts
at 5% and the pipeline advances it automatically when error rate and latency stay
inside the service's SLO for 15 minutes.

Rollback is a single action: "Revert to previous" in the pipeline redeploys the last
good artifact, it does not revert the merge. After any rollback, open an incident note
in the service channel before investigating, so the on-call rotation has context.`,
		},
		{
			Title:  "Code Review Standards",
			Domain: "dev",
			Content: `Every change needs one approving review before merge; changes touching
auth, billing or data migrations need two. Reviews are expected within one business
day, and authors should keep diffs under roughly 400 lines to make that feasible.

Reviewers check behavior, tests and operability, not formatting; formatting is the
linter's job. A "request changes" must name the concrete problem. Nit-level comments
are prefixed "nit:" and never block a merge. Merge commits are squashed, and the
commit message must describe the change, not the review process.`,
		},
		{
			Title:  "Leave Policy",
			Domain: "hr",
			Content: `Full-time employees accrue 25 days of paid annual leave per year,
granted pro-rata monthly. Up to 5 unused days carry over into the next year and must
be taken before the end of March. Leave requests go through the assistant or the HR
portal and need manager approval; requests of 10 or more consecutive working days
should be filed at least one month ahead.

Sick leave is separate from annual leave and requires a doctor's note from the fourth
consecutive day. Parental leave follows statutory rules of the employment country plus
four additional company-paid weeks.`,
		},
		{
			Title:  "Onboarding Checklist",
			Domain: "hr",
			Content: `New joiners receive their laptop and accounts on day one; the buddy
assigned by the hiring manager covers tools and team rituals during the first week.
Mandatory security training must be completed within the first 14 days, and the
benefits enrollment window closes 30 days after the start date.

Managers schedule a 30/60/90 day check-in series through the HR portal. Probation is
six months by default; the mid-probation review at three months is where expectations
get adjusted, not at the end.`,
		},
	}

	for _, d := range docs {
		var existing model.Document
		if err := db.Where("title = ?", d.Title).First(&existing).Error; err == nil {
			log.Printf("Document '%s' already exists, skipping...", d.Title)
			continue
		}

		d.Status = "pending"
		d.UploadedBy = admin.Id
		if err := db.Create(&d).Error; err != nil {
			log.Printf("Error creating document '%s': %v", d.Title, err)
		} else {
			log.Printf("Created document: %s [%s]", d.Title, d.Domain)
		}
	}

	log.Println("Documents are in 'pending' state; POST /api/document/v1/:id/reingest embeds them once the server is up.")
}
