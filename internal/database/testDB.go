package database

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	// Load env
	_ "github.com/joho/godotenv/autoload"

	m "github.com/hafizadha/mrgreedy/internal/model"
)

var testDBInstance *DBinstanceStruct
var teardown func(context.Context, ...testcontainers.TerminateOption) error

// Exported seeded job roles for use across package tests.
var (
	TestJobRoleBackend m.JobRole
	TestJobRoleData    m.JobRole
	TestJobRoleNoDesc  m.JobRole
)

// GetTestDB starts a PostgreSQL test container and returns a teardown
// function, the DB instance, and any error encountered during setup.
func GetTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, *DBinstanceStruct, error) {

	if testDBInstance != nil && teardown != nil {
		return teardown, testDBInstance, nil
	}

	// Database configuration
	var (
		dbName = "database"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:latest",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), nat.Port("5432/tcp"))
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	config := &DBConfig{
		useConstr: true,
		Constr:    fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort.Port(), dbUser, dbPwd, dbName),
	}

	db, err := NewDBInstance(config)
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	if err := seedTestData(db); err != nil {
		_ = dbContainer.Terminate(context.Background())
		return nil, nil, err
	}

	testDBInstance = db
	teardown = dbContainer.Terminate

	return dbContainer.Terminate, db, nil
}

// seedTestData inserts sample job roles if none exist yet.
func seedTestData(db *DBinstanceStruct) error {
	var roleCount int64
	if err := db.Model(&m.JobRole{}).Count(&roleCount).Error; err != nil {
		return err
	}
	if roleCount > 0 {
		return loadTestData(db)
	}

	requiredSkills := "Go, SQL, Docker"
	roles := []m.JobRole{
		{
			JobRole:        "Backend Engineer",
			JobDescription: "Build Go services. Requirements: 3+ years Python or Go experience, Computer Science degree, SQL.",
			RequiredSkills: &requiredSkills,
			Tags:           pq.StringArray{"go", "backend", "api"},
		},
		{
			JobRole:        "Data Analyst",
			JobDescription: "Support data cleansing and dashboard creation. Requirements: SQL, basic statistics, Mathematics or Statistics degree.",
			Tags:           pq.StringArray{"data", "sql", "analytics"},
		},
		{
			JobRole: "Mystery Role",
			// Intentionally left without a description.
			Tags: pq.StringArray{"misc"},
		},
	}

	if err := db.Create(&roles).Error; err != nil {
		return err
	}

	TestJobRoleBackend = roles[0]
	TestJobRoleData = roles[1]
	TestJobRoleNoDesc = roles[2]

	return nil
}

// loadTestData populates exported variables when records already exist.
func loadTestData(db *DBinstanceStruct) error {
	var roles []m.JobRole
	if err := db.Order("id ASC").Limit(3).Find(&roles).Error; err != nil {
		return err
	}
	if len(roles) > 0 {
		TestJobRoleBackend = roles[0]
	}
	if len(roles) > 1 {
		TestJobRoleData = roles[1]
	}
	if len(roles) > 2 {
		TestJobRoleNoDesc = roles[2]
	}
	return nil
}
