package docs

import (
	"strings"
	"testing"
)

func TestSwaggerInfoRegistered(t *testing.T) {
	if SwaggerInfo == nil {
		t.Fatal("swagger info not initialized")
	}
	if SwaggerInfo.Title == "" {
		t.Fatal("swagger info missing title")
	}
	if !strings.Contains(SwaggerInfo.SwaggerTemplate, "/api/fomo/{coin}") {
		t.Fatal("swagger template missing scan endpoint")
	}
}
