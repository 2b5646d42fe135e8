package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/golang-jwt/jwt"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jr-dreamview/ingest-bulk/internal/common"
	"github.com/jr-dreamview/ingest-bulk/internal/log"
	"github.com/jr-dreamview/ingest-bulk/internal/models/ingest"
	"github.com/jr-dreamview/ingest-bulk/internal/models/queue"
	"github.com/jr-dreamview/ingest-bulk/internal/models/user"
	"github.com/jr-dreamview/ingest-bulk/internal/services"
)

// TokenLifetime is how long a login token stays valid.
const TokenLifetime = 12 * time.Hour

type WebServer struct {
	jwtSecret     string
	app           *fiber.App
	clientService *services.ClientService
	logger        *log.Logger
}

func NewWebServer(jwtSecret string, clientService *services.ClientService, logger *log.Logger) *WebServer {
	app := fiber.New(fiber.Config{
		// Manifests of dense scenes are large
		BodyLimit: 64 * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Authorization, Content-Type",
	}))

	return &WebServer{
		jwtSecret:     jwtSecret,
		app:           app,
		clientService: clientService,
		logger:        log.OrNop(logger),
	}
}

func (s *WebServer) Run(ip string, port int) error {
	s.SetupRoutes()
	return s.app.Listen(ip + ":" + strconv.Itoa(port))
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *WebServer) Shutdown() error {
	return s.app.Shutdown()
}

func (s *WebServer) SetupRoutes() {
	s.app.Post("/login", s.loginUser)
	s.app.Post("/register", s.registerUser)
	s.app.Get("/routes", s.getRoutes)
	s.app.Get("/health", s.healthCheck)
	s.app.Put("/user/password", s.tokenRequired(s.updatePassword))
	s.app.Put("/user/username", s.tokenRequired(s.updateUsername))
	s.app.Post("/partition/preview", s.tokenRequired(s.previewPartition))
	s.app.Post("/scenes", s.tokenRequired(s.ingestScene))
	s.app.Get("/runs/:run_id", s.tokenRequired(s.getRun))
	s.app.Get("/runs/:run_id/report", s.tokenRequired(s.getRunReport))
	s.app.Get("/history", s.tokenRequired(s.getOperatorHistory))
	s.app.Get("/queue", s.tokenRequired(s.getQueuePosition))
}

func (s *WebServer) tokenRequired(handler fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			s.logger.Info("Missing Authorization header")
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Missing Authorization header"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			s.logger.Info("Invalid Authorization header format. Expected: `Bearer <token>`")
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid Authorization header format. Expected: `Bearer <token>`"})
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return []byte(s.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			s.logger.Info("Invalid token")
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			s.logger.Info("Invalid token claims")
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
		}
		userID, ok := claims["sub"].(string)
		if !ok {
			s.logger.Info("Invalid user ID in token")
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
		}

		c.Locals("userID", userID)
		return handler(c)
	}
}

// authenticatedUser returns the ID of the authenticated user.
func authenticatedUser(c *fiber.Ctx) (primitive.ObjectID, error) {
	id, _ := c.Locals("userID").(string)
	return primitive.ObjectIDFromHex(id)
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidManifest):
		return http.StatusBadRequest
	case errors.Is(err, user.ErrUserNoAccess):
		return http.StatusForbidden
	case errors.Is(err, ingest.ErrRunNotFound), errors.Is(err, user.ErrUserNotFound), errors.Is(err, queue.ErrIDNotFoundInQueue):
		return http.StatusNotFound
	case errors.Is(err, queue.ErrInvalidQueueID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *WebServer) loginUser(c *fiber.Ctx) error {
	s.logger.Info("Login request received")

	var req common.LoginRequest
	if err := ValidateRequest(c, &req); err != nil {
		s.logger.Info("Login request validation failed:", err.Error())
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	userID, err := s.clientService.LoginUser(c.UserContext(), req.Username, req.Password)
	if err != nil {
		s.logger.Info("User login failed:", err.Error())
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid username or password"})
	}

	tokenString, err := s.signToken(userID)
	if err != nil {
		s.logger.Info("Failed to generate token")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate token"})
	}
	s.logger.Infof("JWT token generated, userID %s", userID)

	return c.Status(http.StatusOK).JSON(fiber.Map{"jwtToken": tokenString})
}

func (s *WebServer) signToken(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(TokenLifetime).Unix(),
	})
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *WebServer) registerUser(c *fiber.Ctx) error {
	s.logger.Info("Register request received")

	var req common.RegisterRequest
	if err := ValidateRequest(c, &req); err != nil {
		s.logger.Info("Register request validation failed:", err.Error())
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := s.clientService.RegisterUser(c.UserContext(), req.Username, req.Password); err != nil {
		s.logger.Info("User registration failed:", err.Error())
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	s.logger.Info("User registered successfully")
	return c.Status(http.StatusCreated).JSON(fiber.Map{"message": "User created"})
}

func (s *WebServer) updatePassword(c *fiber.Ctx) error {
	var req common.UpdatePasswordRequest
	if err := ValidateRequest(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	userID, err := authenticatedUser(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	if err := s.clientService.UpdatePassword(c.UserContext(), userID, req.OldPassword, req.NewPassword); err != nil {
		s.logger.Info("Password update failed:", err.Error())
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Password updated"})
}

func (s *WebServer) updateUsername(c *fiber.Ctx) error {
	var req common.UpdateUsernameRequest
	if err := ValidateRequest(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	userID, err := authenticatedUser(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	if err := s.clientService.UpdateUsername(c.UserContext(), userID, req.Password, req.NewUsername); err != nil {
		s.logger.Info("Username update failed:", err.Error())
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Username updated"})
}

func (s *WebServer) previewPartition(c *fiber.Ctx) error {
	s.logger.Info("Partition preview request received")

	var req common.SceneManifest
	if err := ValidateRequest(c, &req); err != nil {
		s.logger.Info("Partition preview request validation failed:", err.Error())
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	preview, err := s.clientService.PreviewPartition(&req)
	if err != nil {
		s.logger.Info("Partition preview failed:", err.Error())
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	s.logger.Infof("Partition preview of %s: %d groups, %d leftovers", req.ScenePath, len(preview.Groups), len(preview.Leftover))
	return c.Status(http.StatusOK).JSON(preview)
}

func (s *WebServer) ingestScene(c *fiber.Ctx) error {
	s.logger.Info("Scene ingest request received")

	userID, err := authenticatedUser(c)
	if err != nil {
		s.logger.Info("Invalid user ID:", err.Error())
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var req common.SceneManifest
	if err := ValidateRequest(c, &req); err != nil {
		s.logger.Info("Scene ingest request validation failed:", err.Error())
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	runID := primitive.NewObjectID()
	if err := s.clientService.IngestScene(c.UserContext(), runID, userID, &req); err != nil {
		s.logger.Info("Scene ingest failed:", err.Error())
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	s.logger.Infof("Scene %s ingested as run %s. Exports are pending.", req.ScenePath, runID.Hex())
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"id": runID.Hex(), "message": "Scene partitioned and exports queued. Check back later for updates."})
}

// runRequest parses the run ID path parameter and the authenticated user.
func (s *WebServer) runRequest(c *fiber.Ctx) (primitive.ObjectID, primitive.ObjectID, error) {
	var req common.GetRunRequest
	if err := ValidateRequest(c, &req); err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	runID, err := primitive.ObjectIDFromHex(req.RunID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	userID, err := authenticatedUser(c)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	return userID, runID, nil
}

func (s *WebServer) getRun(c *fiber.Ctx) error {
	userID, runID, err := s.runRequest(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	run, err := s.clientService.GetRun(c.UserContext(), userID, runID)
	if err != nil {
		s.logger.Info("Failed to get run:", err.Error())
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"run": run, "status": ingest.StatusName(run.Status)})
}

func (s *WebServer) getRunReport(c *fiber.Ctx) error {
	userID, runID, err := s.runRequest(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	report, err := s.clientService.GetRunReport(c.UserContext(), userID, runID)
	if err != nil {
		s.logger.Info("Failed to get run report:", err.Error())
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(http.StatusOK).SendString(report)
}

func (s *WebServer) getOperatorHistory(c *fiber.Ctx) error {
	s.logger.Info("Get operator history request received")

	userID, err := authenticatedUser(c)
	if err != nil {
		s.logger.Info("Invalid user ID:", err.Error())
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	history, err := s.clientService.GetOperatorHistory(c.UserContext(), userID)
	if err != nil {
		s.logger.Info("Failed to get operator history:", err.Error())
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"resources": history})
}

func (s *WebServer) getQueuePosition(c *fiber.Ctx) error {
	var req common.GetQueuePositionRequest
	if err := ValidateRequest(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	userID, err := authenticatedUser(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	runID, err := primitive.ObjectIDFromHex(req.RunID)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid run ID"})
	}

	position, size, err := s.clientService.GetQueuePosition(c.UserContext(), userID, runID, req.QueueID)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"position": position, "size": size})
}

func (s *WebServer) getRoutes(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(s.app.GetRoutes())
}

func (s *WebServer) healthCheck(c *fiber.Ctx) error {
	return c.SendString("OK")
}
