package api

import (
	"net/http"

	"alcyxob/rehab-assign/internal/domain"
	"alcyxob/rehab-assign/internal/logger"
	"alcyxob/rehab-assign/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services groups everything the HTTP layer calls into.
type Services struct {
	Auth        service.AuthService
	Patients    service.PatientService
	Library     service.LibraryService
	Sets        service.SetService
	Assignments service.AssignmentService
	Wizards     service.WizardService
	Media       service.MediaService
}

func SetupRoutes(router *gin.Engine, jwtSecret string, svc Services, log logger.Logger) {
	authHandler := NewAuthHandler(svc.Auth, log)
	clinicianHandler := NewClinicianHandler(svc.Patients, svc.Library, svc.Sets, svc.Assignments, log)
	wizardHandler := NewWizardHandler(svc.Wizards, svc.Media, log)
	patientHandler := NewPatientHandler(svc.Assignments, log)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)

		// --- Clinician Routes ---
		clinicianGroup := protected.Group("/clinician")
		clinicianGroup.Use(RoleMiddleware(domain.RoleClinician))
		{
			clinicianGroup.POST("/patients", clinicianHandler.AddPatient)
			clinicianGroup.GET("/patients", clinicianHandler.ListPatients)
			clinicianGroup.GET("/patients/:patientId/assignments", clinicianHandler.ListPatientAssignments)

			clinicianGroup.POST("/exercises", clinicianHandler.CreateExercise)
			clinicianGroup.GET("/exercises", clinicianHandler.ListExercises)

			clinicianGroup.POST("/sets", clinicianHandler.CreateSet)
			clinicianGroup.GET("/sets", clinicianHandler.ListSets)
			clinicianGroup.GET("/sets/:setId", clinicianHandler.GetSet)
			clinicianGroup.POST("/sets/:setId/exercises", clinicianHandler.AddSetExercise)

			// --- Assignment wizard ---
			clinicianGroup.POST("/wizards", wizardHandler.Open)
			wizardGroup := clinicianGroup.Group("/wizards/:id")
			{
				wizardGroup.GET("", wizardHandler.Get)
				wizardGroup.DELETE("", wizardHandler.Close)

				wizardGroup.POST("/set", wizardHandler.SelectSet)
				wizardGroup.POST("/patients", wizardHandler.UpdatePatients)
				wizardGroup.POST("/overrides", wizardHandler.UpdateOverride)
				wizardGroup.POST("/overrides/reset", wizardHandler.ResetOverride)
				wizardGroup.POST("/exclusions", wizardHandler.ToggleExclusion)
				wizardGroup.POST("/dates", wizardHandler.SetDates)
				wizardGroup.POST("/preset", wizardHandler.ApplyPreset)
				wizardGroup.POST("/frequency", wizardHandler.SetFrequency)

				wizardGroup.POST("/next", wizardHandler.Next)
				wizardGroup.POST("/back", wizardHandler.Back)
				wizardGroup.POST("/goto", wizardHandler.GoTo)
				wizardGroup.POST("/submit", wizardHandler.Submit)

				wizardGroup.POST("/media/upload-url", wizardHandler.RequestUploadURL)
				wizardGroup.POST("/media/confirm", wizardHandler.ConfirmUpload)
			}
		}

		// --- Patient Routes ---
		patientGroup := protected.Group("/patient")
		patientGroup.Use(RoleMiddleware(domain.RolePatient))
		{
			patientGroup.GET("/assignments", patientHandler.ListMyAssignments)
			patientGroup.GET("/assignments/:assignmentId/plan", patientHandler.GetPlan)
		}
	}
}
