package internal

import (
	"fsd/internal/controllers"
	"fsd/internal/providers"
	"net/http"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/snapshot", http.HandlerFunc(apiController.GetSnapshot))
	routers.Get("/groups", http.HandlerFunc(apiController.GetGroups))
	routers.Post("/refresh", http.HandlerFunc(apiController.Refresh))
	return routers
}
