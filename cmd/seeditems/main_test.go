package main

import (
	"testing"

	"distillery/internal/planning"

	"github.com/stretchr/testify/assert"
)

func TestCatalog(t *testing.T) {
	items := catalog(nil)

	byName := make(map[string]string)
	for _, it := range items {
		_, dup := byName[it.Name]
		assert.False(t, dup, "duplicate %s", it.Name)
		byName[it.Name] = it.Category
	}

	assert.Equal(t, planning.CategoryPackaging, byName["Bottle 700ml"])
	assert.Equal(t, planning.CategoryPackaging, byName["Cap 200ml"])
	assert.Equal(t, planning.CategoryPackaging, byName["Carton 6-pack 700ml"])
	assert.Equal(t, planning.CategoryBotanicals, byName["Juniper Berries"])
}
