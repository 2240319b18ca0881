package database

// Schema and query code generation.
//
// After adding a migration under migrations/files, regenerate with:
//   go generate ./internal/database
//
// generate_schema.go applies every migration to an in-memory database and
// dumps the result to sqlc/schema.sql, which sqlc reads together with
// sqlc/query.sql.

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
//go:generate sh -c "cd ../.. && sqlc generate -f internal/database/sqlc/sqlc.yaml"
