// @title           BusinessConnect Sénégal API
// @version         1.0
// @description     API de la plateforme BusinessConnect: offres d'emploi, marketplace, forum et abonnements.
// @contact.name    BusinessConnect Sénégal
// @contact.email   support@businessconnect.sn
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:5000
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization

package main

import (
	"businessconnect_backend/internal/app"

	_ "businessconnect_backend/docs"
)

func main() {
	app.Run()
}
