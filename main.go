package main

import (
	"elimu/config"
	contentControllers "elimu/controllers/content"
	reviewControllers "elimu/controllers/review"
	"elimu/database"
	contentRoutes "elimu/routers/contentRoutes"
	reviewRoutes "elimu/routers/reviewRoutes"
	"elimu/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	log "github.com/sirupsen/logrus"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	store := utils.NewDiskStore(config.AppConfig.UploadDir)
	contentControllers.Blobs = store
	reviewControllers.Blobs = store

	utils.InitializeExamScheduler()

	app := fiber.New(fiber.Config{
		BodyLimit: 200 * 1024 * 1024, // video uploads
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	contentRoutes.SetupContentRoutes(app)
	reviewRoutes.SetupReviewRoutes(app)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
