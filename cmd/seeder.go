package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if clearData {
			for _, table := range []string{"notifications", "audit_logs", "process_documents", "process_steps", "processes", "process_counters", "users"} {
				if _, err := db.Exec("DELETE FROM " + table); err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "senha123"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedUsers := []struct {
			Name  string
			Email string
			Role  string
			Phone string
		}{
			{"Mariana Master", "mariana@regulariza.com", "admin_master", "+5511999990001"},
			{"Eduardo Editor", "eduardo@regulariza.com", "admin_editor", "+5511999990002"},
			{"Vera Viewer", "vera@regulariza.com", "admin_viewer", ""},
			{"Carlos Cliente", "carlos@mail.com", "cliente", "+5511999990003"},
		}

		for _, u := range seedUsers {
			var exists int
			if err := db.QueryRow("SELECT 1 FROM users WHERE email = $1", u.Email).Scan(&exists); err == nil {
				fmt.Printf("user %s already exists, skipping\n", u.Email)
				continue
			}

			_, err := db.Exec(
				`INSERT INTO users (name, email, password_hash, phone, role, sms_opt_in, is_active, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, true, now(), now())`,
				u.Name, u.Email, string(hash), u.Phone, u.Role, u.Phone != "")
			if err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}
			fmt.Printf("Seeded user: %s (%s)\n", u.Email, u.Role)
		}

		var clientID int64
		if err := db.QueryRow("SELECT id FROM users WHERE email = $1", "carlos@mail.com").Scan(&clientID); err != nil {
			log.Fatalf("failed to lookup seed client: %v", err)
		}

		var processExists int
		if err := db.QueryRow("SELECT 1 FROM processes WHERE client_id = $1", clientID).Scan(&processExists); err == nil {
			fmt.Println("sample process already exists, done")
			return
		}

		bucket := time.Now().Format("0601")
		var counter int64
		err = db.QueryRow(
			`INSERT INTO process_counters (bucket, counter, updated_at) VALUES ($1, 1, now())
			 ON CONFLICT (bucket) DO UPDATE SET counter = process_counters.counter + 1, updated_at = now()
			 RETURNING counter`, bucket).Scan(&counter)
		if err != nil {
			log.Fatalf("failed to allocate process number: %v", err)
		}
		processNumber := fmt.Sprintf("ER-%s-%05d", bucket, counter)

		var processID int64
		err = db.QueryRow(
			`INSERT INTO processes (process_number, title, process_type, client_id, status, progress, deadline, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, 'em_andamento', 33, $5, now(), now()) RETURNING id`,
			processNumber, "Regularização Lote 42", "usucapiao", clientID, time.Now().AddDate(0, 6, 0)).Scan(&processID)
		if err != nil {
			log.Fatalf("failed to insert sample process: %v", err)
		}

		steps := []struct {
			Title  string
			Status string
		}{
			{"Análise documental", "concluido"},
			{"Entrada no cartório", "em_andamento"},
			{"Registro final", "pendente"},
		}
		for i, s := range steps {
			_, err := db.Exec(
				`INSERT INTO process_steps (process_id, title, position, status, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, now(), now())`,
				processID, s.Title, i+1, s.Status)
			if err != nil {
				log.Fatalf("failed to insert process step: %v", err)
			}
		}

		documents := []struct {
			Name string
			Pool string
		}{
			{"RG ou CNH", "cliente"},
			{"Comprovante de residência", "cliente"},
			{"Matrícula do imóvel", "interno"},
		}
		for _, d := range documents {
			_, err := db.Exec(
				`INSERT INTO process_documents (process_id, name, pool, required, status, created_at, updated_at)
				 VALUES ($1, $2, $3, true, 'pending', now(), now())`,
				processID, d.Name, d.Pool)
			if err != nil {
				log.Fatalf("failed to insert document requirement: %v", err)
			}
		}

		fmt.Printf("Seeded sample process %s for %s\n", processNumber, "carlos@mail.com")
	},
}
