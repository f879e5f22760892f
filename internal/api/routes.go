package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hmtran/audiolesson/domain/entities"
	"github.com/hmtran/audiolesson/internal/auth"
	"github.com/hmtran/audiolesson/internal/websocket"
	"github.com/hmtran/audiolesson/usecase"
)

// InitRoutes initializes all API routes
func InitRoutes(
	e *echo.Echo,
	transcriptions *usecase.TranscriptionService,
	challenges *usecase.ChallengeService,
	grading *usecase.GradingService,
	feed *websocket.Feed,
	logger *zap.Logger,
) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "audiolesson-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	// Transcription pipeline APIs
	v1.POST("/transcripts", func(c echo.Context) error {
		return submitTranscript(c, transcriptions, logger)
	})
	v1.GET("/transcripts/:id", func(c echo.Context) error {
		return jobStatus(c, transcriptions)
	})
	v1.GET("/transcripts/:id/result", func(c echo.Context) error {
		return jobResult(c, transcriptions)
	})

	// Challenge APIs
	v1.POST("/lessons/:lessonId/challenges", func(c echo.Context) error {
		return addChallenges(c, challenges, logger)
	})
	v1.GET("/lessons/:lessonId/challenges", func(c echo.Context) error {
		return listChallenges(c, challenges)
	})
	v1.GET("/lessons/:lessonId/challenges/first", func(c echo.Context) error {
		return challengeByOffset(c, challenges, 0)
	})
	v1.GET("/lessons/:lessonId/challenges/next", func(c echo.Context) error {
		return challengeByOffset(c, challenges, 1)
	})
	v1.GET("/lessons/:lessonId/challenges/previous", func(c echo.Context) error {
		return challengeByOffset(c, challenges, -1)
	})

	// Grading APIs
	v1.POST("/challenges/check", func(c echo.Context) error {
		return checkAnswer(c, grading)
	})
	v1.POST("/challenges/check-user", func(c echo.Context) error {
		return checkUserAnswer(c, grading, logger)
	})

	// Token issuance for the grading path
	v1.POST("/users/token", issueToken)

	// Job status feed
	e.GET("/ws/jobs", feed.Handle)
}

func submitTranscript(c echo.Context, transcriptions *usecase.TranscriptionService, logger *zap.Logger) error {
	var req SubmitTranscriptRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.AudioURL == "" || req.LessonID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Audio URL and lesson id are required",
		})
	}

	transcriptionJobID, alignmentJobID, err := transcriptions.Submit(c.Request().Context(), req.LessonID, req.AudioURL)
	if err != nil {
		logger.Error("Failed to submit transcription job", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "submit_failed",
			Message: "Failed to submit transcription job",
		})
	}

	return c.JSON(http.StatusAccepted, SubmitTranscriptResponse{
		TranscriptionJobID: transcriptionJobID,
		AlignmentJobID:     alignmentJobID,
	})
}

func jobStatus(c echo.Context, transcriptions *usecase.TranscriptionService) error {
	job, err := transcriptions.GetStatus(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, entities.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "job_not_found",
				Message: "No job with the given id",
			})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "status_failed",
			Message: "Failed to load job status",
		})
	}

	return c.JSON(http.StatusOK, JobStatusResponse{
		JobID:  job.JobID,
		Status: string(job.Status),
		Result: job.Result,
		Error:  job.Error,
	})
}

func jobResult(c echo.Context, transcriptions *usecase.TranscriptionService) error {
	result, err := transcriptions.GetResult(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, entities.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "job_not_found",
				Message: "No job with the given id",
			})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "result_failed",
			Message: "Failed to load job result",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"result": result})
}

func addChallenges(c echo.Context, challenges *usecase.ChallengeService, logger *zap.Logger) error {
	var req AddChallengesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	created, err := challenges.AddChallenges(c.Request().Context(), c.Param("lessonId"), req.AnswerKey)
	if err != nil {
		logger.Warn("Rejected answer key", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_answer_key",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusCreated, created)
}

func listChallenges(c echo.Context, challenges *usecase.ChallengeService) error {
	found, err := challenges.List(c.Request().Context(), c.Param("lessonId"))
	if err != nil {
		if errors.Is(err, entities.ErrChallengeNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "challenges_not_found",
				Message: "No challenges found for the given lesson",
			})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list challenges",
		})
	}
	return c.JSON(http.StatusOK, found)
}

// challengeByOffset serves first/next/previous lookups. first ignores
// order_index; next/previous require it.
func challengeByOffset(c echo.Context, challenges *usecase.ChallengeService, offset int) error {
	ctx := c.Request().Context()
	lessonID := c.Param("lessonId")

	var (
		challenge *entities.Challenge
		err       error
	)
	if offset == 0 {
		challenge, err = challenges.First(ctx, lessonID)
	} else {
		orderIndex, convErr := strconv.Atoi(c.QueryParam("order_index"))
		if convErr != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_order_index",
				Message: "order_index query parameter is required",
			})
		}
		if offset > 0 {
			challenge, err = challenges.Next(ctx, lessonID, orderIndex)
		} else {
			challenge, err = challenges.Previous(ctx, lessonID, orderIndex)
		}
	}

	if err != nil {
		if errors.Is(err, entities.ErrChallengeNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "challenge_not_found",
				Message: "Challenge not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "lookup_failed",
			Message: "Failed to load challenge",
		})
	}
	return c.JSON(http.StatusOK, challenge)
}

func checkAnswer(c echo.Context, grading *usecase.GradingService) error {
	var req CheckRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	outcome, err := grading.Check(c.Request().Context(), req.LessonID, req.OrderIndex, req.UserAnswers)
	if err != nil {
		if errors.Is(err, entities.ErrChallengeNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "challenge_not_found",
				Message: "Challenge not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "grading_failed",
			Message: "Failed to grade answers",
		})
	}
	return c.JSON(http.StatusOK, outcome)
}

func checkUserAnswer(c echo.Context, grading *usecase.GradingService, logger *zap.Logger) error {
	claims, err := bearerClaims(c)
	if err != nil {
		logger.Warn("Grading request rejected", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "A valid bearer token is required",
		})
	}

	var req CheckRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	outcome, err := grading.CheckForUser(c.Request().Context(), req.LessonID, req.OrderIndex, req.UserAnswers, claims.Username)
	if err != nil {
		if errors.Is(err, entities.ErrChallengeNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "challenge_not_found",
				Message: "Challenge not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "grading_failed",
			Message: "Failed to grade answers",
		})
	}
	return c.JSON(http.StatusOK, outcome)
}

func issueToken(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil || req.Username == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Username is required",
		})
	}

	token, err := auth.GenerateUserToken(req.Username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate token",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

func bearerClaims(c echo.Context) (*auth.JWTClaims, error) {
	header := c.Request().Header.Get("Authorization")
	if len(header) <= 7 || header[:7] != "Bearer " {
		return nil, errors.New("missing bearer token")
	}
	return auth.ValidateToken(header[7:])
}
