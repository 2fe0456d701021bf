package api

//go:generate go tool oapi-codegen -generate types -package api -o types.gen.go ../../../../spec/openapi.yml
//go:generate go tool oapi-codegen -generate gin,spec -package api -o api.gen.go ../../../../spec/openapi.yml
