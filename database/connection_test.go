package database

import (
	"testing"

	"biblio-app/config"

	"github.com/stretchr/testify/require"
)

func TestDialectorFor(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql", "mssql"} {
		d, err := dialectorFor(&config.Config{DBDriver: driver, DBHost: "db", DBPort: "1"}, "biblio")
		require.NoError(t, err, driver)
		require.NotNil(t, d, driver)
	}

	_, err := dialectorFor(&config.Config{DBDriver: "oracle"}, "biblio")
	require.Error(t, err)
}
