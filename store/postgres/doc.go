// Package postgres provides a PostgreSQL-backed plan store using pgx.
package postgres
