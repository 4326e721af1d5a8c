package main

import (
	"log"

	"go-stockwise/internal/config"
	"go-stockwise/internal/model"
	"go-stockwise/internal/store"
	"go-stockwise/pkg/storage"
)

// Resets the admin password back to the default. Useful when the admin
// account is locked out of a deployed instance.
func main() {
	cfg := config.Load()
	if cfg.DBPath == "" {
		log.Fatal("STOCKWISE_DB_PATH must be set")
	}

	kv, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database at %s: %v", cfg.DBPath, err)
	}
	defer kv.Close()

	st := store.Open(kv)

	username := "admin"
	records, err := st.GetAll(store.TableUsers)
	if err != nil {
		log.Fatalf("Failed to read users: %v", err)
	}

	var admin *model.User
	for _, rec := range records {
		if user, ok := rec.(*model.User); ok && user.Username == username {
			admin = user
			break
		}
	}
	if admin == nil {
		log.Fatalf("User %s not found", username)
	}

	newPassword := "password123"
	if err := admin.SetPassword(newPassword); err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	ok, err := st.Update(store.TableUsers, admin.ID, &model.UserPatch{Password: &admin.Password})
	if err != nil || !ok {
		log.Fatalf("Failed to update password: %v", err)
	}

	log.Printf("Success! Password for %s has been reset to: %s", username, newPassword)
}
