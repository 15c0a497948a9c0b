package db

import (
	"encoding/json"

	"github.com/marcusv/decksched/internal/models"
)

func defaultConfigJSON() string {
	b, err := json.Marshal(models.DefaultDeckConfig())
	if err != nil {
		// the default config is a static value; this cannot happen
		panic(err)
	}
	return string(b)
}
