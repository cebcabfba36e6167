// Package docs - Swagger documentation
// Run 'make swagger' to regenerate.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{"swagger":"2.0","info":{"title":"{{.Title}}","version":"{{.Version}}"},"host":"{{.Host}}","basePath":"{{.BasePath}}"}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Title:            "Lottery Engine API",
	Description:      "50/50 rollover lottery service API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
