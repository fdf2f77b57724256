package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"kanban/internal/board"
)

type createTaskRequest struct {
	Name string `json:"name"`
	Done bool   `json:"done"`
}

type setDoneRequest struct {
	Done *bool `json:"done"`
}

func healthz(repo Repository) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := repo.Cards(c.Request().Context()); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "repository unavailable").SetInternal(err)
		}
		return c.NoContent(http.StatusOK)
	}
}

func listCards(repo Repository) echo.HandlerFunc {
	return func(c echo.Context) error {
		b, err := repo.Cards(c.Request().Context())
		if err != nil {
			return repoError(err)
		}
		return c.JSON(http.StatusOK, b)
	}
}

func addTask(repo Repository) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createTaskRequest
		if err := c.Bind(&req); err != nil {
			return err
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "task name is required")
		}
		task, err := repo.AddTask(c.Request().Context(), board.ID(c.Param("cardId")), name, req.Done)
		if err != nil {
			return repoError(err)
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func deleteTask(repo Repository) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := repo.DeleteTask(c.Request().Context(), board.ID(c.Param("cardId")), board.ID(c.Param("taskId")))
		if err != nil {
			return repoError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func setTaskDone(repo Repository) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req setDoneRequest
		if err := c.Bind(&req); err != nil {
			return err
		}
		if req.Done == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "done is required")
		}
		task, err := repo.SetTaskDone(c.Request().Context(), board.ID(c.Param("cardId")), board.ID(c.Param("taskId")), *req.Done)
		if err != nil {
			return repoError(err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func repoError(err error) error {
	if errors.Is(err, board.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
}
