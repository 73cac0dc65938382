package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"cetele/internal/models"
	"cetele/internal/repository"
	"cetele/internal/streak"
	"cetele/internal/validation"
)

var ErrNotLinked = errors.New("child not linked to this parent")

// Dashboard is the child home view: streaks, the current week's totals,
// and today's entry when one exists
type Dashboard struct {
	CurrentStreak int                `json:"current_streak"`
	LongestStreak int                `json:"longest_streak"`
	Week          streak.WeekSummary `json:"week"`
	Today         *models.DailyLog   `json:"today,omitempty"`
}

// MonthHistory lists the completed dates of one calendar month
type MonthHistory struct {
	Month         string   `json:"month"`
	Dates         []string `json:"dates"`
	CurrentStreak int      `json:"current_streak"`
	LongestStreak int      `json:"longest_streak"`
}

// ChildWeek is a parent's read-only view of one child's week
type ChildWeek struct {
	Child     *models.User       `json:"child"`
	WeekStart string             `json:"week_start"`
	WeekEnd   string             `json:"week_end"`
	Summary   streak.WeekSummary `json:"summary"`
	Logs      []*models.DailyLog `json:"logs"`
}

// StatsService reads and writes daily logs and derives streak and
// summary figures from them
type StatsService struct {
	logRepo   *repository.DailyLogRepository
	childRepo *repository.ChildRepository
	userRepo  *repository.UserRepository
	logger    *logrus.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(
	logRepo *repository.DailyLogRepository,
	childRepo *repository.ChildRepository,
	userRepo *repository.UserRepository,
	logger *logrus.Logger,
) *StatsService {
	return &StatsService{
		logRepo:   logRepo,
		childRepo: childRepo,
		userRepo:  userRepo,
		logger:    logger,
	}
}

// SaveLog upserts a child's entry for one date. The child and date keys
// come from the authenticated session and the URL, never the payload.
func (s *StatsService) SaveLog(childID int64, date string, log *models.DailyLog) (*models.DailyLog, error) {
	if err := validation.ValidateLogDate(date); err != nil {
		return nil, err
	}
	log.ChildID = childID
	log.LogDate = date

	if err := s.logRepo.UpsertLog(log); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"child_id": childID,
		"date":     date,
	}).Debug("daily log saved")
	return log, nil
}

// GetLog returns a child's entry for one date, or nil when the day has
// no entry yet
func (s *StatsService) GetLog(childID int64, date string) (*models.DailyLog, error) {
	if err := validation.ValidateLogDate(date); err != nil {
		return nil, err
	}
	return s.logRepo.GetLog(childID, date)
}

// GetDashboard builds the child home view for the given local day
func (s *StatsService) GetDashboard(childID int64, today time.Time) (*Dashboard, error) {
	dates, err := s.logRepo.GetLogDates(childID)
	if err != nil {
		return nil, err
	}

	monday, sunday := streak.WeekBounds(today)
	logs, err := s.logRepo.GetLogsInRange(childID,
		monday.Format(streak.DateLayout), sunday.Format(streak.DateLayout))
	if err != nil {
		return nil, err
	}

	todayLog, err := s.logRepo.GetLog(childID, today.Format(streak.DateLayout))
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		CurrentStreak: streak.Current(dates, today),
		LongestStreak: streak.Longest(dates),
		Week:          streak.Summarize(logs),
		Today:         todayLog,
	}, nil
}

// GetMonthHistory lists a child's completed days in a YYYY-MM month,
// along with the overall streak figures shown beside the calendar
func (s *StatsService) GetMonthHistory(childID int64, month string, today time.Time) (*MonthHistory, error) {
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, validation.ValidationError{Field: "month", Message: "month must be YYYY-MM"}
	}

	dates, err := s.logRepo.GetLogDates(childID)
	if err != nil {
		return nil, err
	}

	history := &MonthHistory{
		Month:         month,
		Dates:         []string{},
		CurrentStreak: streak.Current(dates, today),
		LongestStreak: streak.Longest(dates),
	}
	for _, d := range dates {
		if strings.HasPrefix(d, month+"-") {
			history.Dates = append(history.Dates, d)
		}
	}
	return history, nil
}

// GetChildWeekForParent returns one linked child's week to a parent.
// The link check runs on every call; an unlinked child is reported as
// not linked regardless of whether the child exists.
func (s *StatsService) GetChildWeekForParent(parentID, childID int64, weekDay time.Time) (*ChildWeek, error) {
	linked, err := s.childRepo.LinkExists(parentID, childID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, ErrNotLinked
	}

	child, err := s.userRepo.GetUserByID(childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, ErrNotLinked
	}

	monday, sunday := streak.WeekBounds(weekDay)
	from := monday.Format(streak.DateLayout)
	to := sunday.Format(streak.DateLayout)

	logs, err := s.logRepo.GetLogsInRange(childID, from, to)
	if err != nil {
		return nil, err
	}

	return &ChildWeek{
		Child:     child,
		WeekStart: from,
		WeekEnd:   to,
		Summary:   streak.Summarize(logs),
		Logs:      logs,
	}, nil
}

// ParentDashboard lists a parent's linked children with their current
// streaks for the overview page
type ParentDashboard struct {
	Children []ChildOverview `json:"children"`
}

// ChildOverview is one row of the parent overview
type ChildOverview struct {
	Child         models.User `json:"child"`
	CurrentStreak int         `json:"current_streak"`
	LoggedToday   bool        `json:"logged_today"`
}

// GetParentDashboard builds the parent overview for the given local day
func (s *StatsService) GetParentDashboard(parentID int64, today time.Time) (*ParentDashboard, error) {
	children, err := s.childRepo.GetChildrenForParent(parentID)
	if err != nil {
		return nil, err
	}

	dashboard := &ParentDashboard{Children: []ChildOverview{}}
	todayKey := today.Format(streak.DateLayout)
	for _, child := range children {
		dates, err := s.logRepo.GetLogDates(child.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load logs for child %d: %w", child.ID, err)
		}

		loggedToday := false
		for _, d := range dates {
			if d == todayKey {
				loggedToday = true
				break
			}
		}

		dashboard.Children = append(dashboard.Children, ChildOverview{
			Child:         child,
			CurrentStreak: streak.Current(dates, today),
			LoggedToday:   loggedToday,
		})
	}
	return dashboard, nil
}
