// Package docs contains the OpenAPI documentation for the Stitch Music API
//
//	@title			Stitch Music API
//	@version		0.1.0
//	@description	Track uploads, streaming, likes and comments for Stitch Music.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/api
//	@schemes	http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the identity provider's RS256 token.
//
//	@tag.name			tracks
//	@tag.description	Track catalogue operations
//
//	@tag.name			uploads
//	@tag.description	Upload sessions, direct uploads and audio replacement
//
//	@tag.name			media
//	@tag.description	Audio streaming and cover images
//
//	@tag.name			interactions
//	@tag.description	Likes and comments
//
//	@tag.name			health
//	@tag.description	Service health
package docs
