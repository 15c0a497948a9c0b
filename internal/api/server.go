package api

import (
	"database/sql"

	"github.com/marcusv/decksched/internal/services"
)

// Server bundles the HTTP handlers with their dependencies.
type Server struct {
	DB    *sql.DB
	Study services.StudyService
	Decks services.DeckService
}
