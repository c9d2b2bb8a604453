// Command-line tool to seed job roles from a CSV file.
//
// Expected header: job_role,job_description,required_skills,tags
// required_skills may be empty; tags is a semicolon-separated list.
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/lib/pq"

	"github.com/hafizadha/mrgreedy/internal/config"
	"github.com/hafizadha/mrgreedy/internal/database"
	"github.com/hafizadha/mrgreedy/internal/model"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <jobs.csv>", os.Args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.FromConfig(cfg)
	if err != nil {
		log.Fatalf("Database failed to initialize: %v", err)
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer func() { _ = f.Close() }()

	roles, err := readRoles(f)
	if err != nil {
		log.Fatalf("Failed to read CSV file: %v", err)
	}

	for i := range roles {
		if err := db.Create(&roles[i]).Error; err != nil {
			log.Fatalf("Failed to insert job role %q: %v", roles[i].JobRole, err)
		}
	}

	fmt.Printf("Seeded %d job roles.\n", len(roles))
}

func readRoles(r io.Reader) ([]model.JobRole, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"job_role", "job_description"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	var roles []model.JobRole
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		role := model.JobRole{
			JobRole:        field(record, col, "job_role"),
			JobDescription: field(record, col, "job_description"),
		}
		if skills := field(record, col, "required_skills"); skills != "" {
			role.RequiredSkills = &skills
		}
		if tags := field(record, col, "tags"); tags != "" {
			var list pq.StringArray
			for _, tag := range strings.Split(tags, ";") {
				if tag = strings.TrimSpace(tag); tag != "" {
					list = append(list, tag)
				}
			}
			role.Tags = list
		}
		if role.JobRole == "" {
			continue
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func field(record []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
