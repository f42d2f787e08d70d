package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		user, pass string
		want       string
	}{
		{name: "empty", in: "", want: ""},
		{
			name: "native dsn untouched",
			in:   "app:pw@tcp(127.0.0.1:3306)/users?parseTime=true",
			want: "app:pw@tcp(127.0.0.1:3306)/users?parseTime=true",
		},
		{
			name: "url form gets defaults",
			in:   "mysql://app:pw@db:3306/users",
			want: "app:pw@tcp(db:3306)/users?charset=utf8mb4&parseTime=true",
		},
		{
			name: "jdbc params mapped",
			in:   "jdbc:mysql://db:3306/users?useSSL=false&characterEncoding=utf8&useUnicode=true",
			user: "root", pass: "secret",
			want: "root:secret@tcp(db:3306)/users?charset=utf8&parseTime=true&tls=false",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeMySQLDSN(tc.in, tc.user, tc.pass))
		})
	}
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "app:****@tcp(db:3306)/users", maskDSN("app:pw@tcp(db:3306)/users"))
	assert.Equal(t, "tcp(db:3306)/users", maskDSN("tcp(db:3306)/users"))
}

func TestDatabaseName(t *testing.T) {
	name, err := databaseName("mongodb://localhost:27017/fromuri", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fromuri", name)

	name, err = databaseName("mongodb://localhost:27017", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", name)

	_, err = databaseName("mongodb://localhost:27017", "")
	assert.Error(t, err)

	_, err = databaseName("http://nope", "x")
	assert.Error(t, err)
}
