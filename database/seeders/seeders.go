package seeders

import (
	"log"
	"time"
	"tutorhub_go/database"
	"tutorhub_go/models"
	"tutorhub_go/utils"
)

// SeedAll runs all seeders
func SeedAll() {
	log.Println("Starting database seeding...")

	SeedPlans()
	SeedAdmin()

	log.Println("Database seeding completed successfully!")
}

// SeedPlans seeds the plans table. The "Starter" plan is the one assigned
// automatically when an admin approves a newly registered teacher.
func SeedPlans() {
	var count int64
	database.DB.Model(&models.Plan{}).Count(&count)
	if count > 0 {
		log.Println("Plans already seeded, skipping...")
		return
	}

	plans := []models.Plan{
		{
			Name:          "Starter",
			MaxStudents:   5,
			MaxAssistants: 0,
			Price:         0,
			DurationDays:  0, // never expires
			IsDefault:     true,
			IsTrial:       true,
			Active:        true,
			Description:   "Free starter tier for newly approved teachers",
		},
		{
			Name:          "Basic",
			MaxStudents:   30,
			MaxAssistants: 1,
			Price:         9.99,
			DurationDays:  30,
			Active:        true,
			Description:   "For independent teachers with a single classroom",
		},
		{
			Name:          "Pro",
			MaxStudents:   100,
			MaxAssistants: 3,
			Price:         24.99,
			DurationDays:  30,
			Active:        true,
			Description:   "For busy teachers running several groups",
		},
		{
			Name:          "Center",
			MaxStudents:   500,
			MaxAssistants: 15,
			Price:         79.99,
			DurationDays:  30,
			Active:        true,
			Description:   "For tutoring centers with multiple teachers",
		},
	}

	for _, plan := range plans {
		if err := database.DB.Create(&plan).Error; err != nil {
			log.Printf("Error seeding plan %s: %v", plan.Name, err)
		}
	}

	log.Println("Plans seeded successfully")
}

// SeedAdmin seeds the bootstrap admin account
func SeedAdmin() {
	var count int64
	database.DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count > 0 {
		log.Println("Admin already seeded, skipping...")
		return
	}

	hashedPassword, _ := utils.HashPassword("changeme123")

	admin := models.User{
		BaseModel: models.BaseModel{CreatedAt: time.Now().UTC()},
		Username:  "admin",
		Password:  hashedPassword,
		Email:     "admin@tutorhub.app",
		Role:      models.RoleAdmin,
		Status:    models.StatusActive,
	}

	if err := database.DB.Create(&admin).Error; err != nil {
		log.Printf("Error seeding admin user: %v", err)
		return
	}

	log.Println("Admin user seeded successfully")
}
