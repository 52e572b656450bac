package services

import (
	"context"
	"fmt"
	"time"

	"progreso/cache"
	"progreso/models"
	"progreso/utils"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	feedCacheKey = "feed:latest"
	feedCacheTTL = 60 * time.Second
	feedLimit    = 20
)

// UserService covers profile/onboarding, manual content creation, the shop,
// the public feed, and assistant messages.
type UserService struct {
	DB     *gorm.DB
	Clock  clockwork.Clock
	Zone   *time.Location
	Logger *zap.Logger
}

func NewUserService(db *gorm.DB, clock clockwork.Clock, zone *time.Location, logger *zap.Logger) *UserService {
	return &UserService{DB: db, Clock: clock, Zone: zone, Logger: logger}
}

// ProfileInput carries the onboarding profile step.
type ProfileInput struct {
	AgeBracket           string `json:"age_bracket" validate:"required,max=40"`
	FreeTime             string `json:"free_time" validate:"required,max=40"`
	Hobbies              string `json:"hobbies" validate:"required"`
	AssistantPersonality string `json:"assistant_personality" validate:"omitempty,max=40"`
	MissionsPerDay       int    `json:"missions_per_day" validate:"omitempty,min=1,max=10"`
	HabitsToGenerate     int    `json:"habits_to_generate" validate:"omitempty,min=1,max=10"`
	ShopItemsPerDay      int    `json:"shop_items_per_day" validate:"omitempty,min=1,max=10"`
}

// UpdateProfile stores the profile step and advances onboarding from
// registered to profiled. Later statuses keep their place; editing a profile
// never moves a user backwards.
func (s *UserService) UpdateProfile(userID string, in ProfileInput) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}

	user.AgeBracket = &in.AgeBracket
	user.FreeTime = &in.FreeTime
	user.Hobbies = &in.Hobbies
	if in.AssistantPersonality != "" {
		user.AssistantPersonality = in.AssistantPersonality
	}
	if in.MissionsPerDay > 0 {
		user.MissionsPerDay = in.MissionsPerDay
	}
	if in.HabitsToGenerate > 0 {
		user.HabitsToGenerate = in.HabitsToGenerate
	}
	if in.ShopItemsPerDay > 0 {
		user.ShopItemsPerDay = in.ShopItemsPerDay
	}
	if user.OnboardingStatus == models.StatusRegistered {
		user.OnboardingStatus = models.StatusProfiled
	}

	if err := s.DB.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SetGoals stores the goals step. Reachable once the profile exists.
func (s *UserService) SetGoals(userID, personal, professional string) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	if user.OnboardingStatus == models.StatusRegistered {
		return nil, models.ErrOnboardingStep
	}

	user.PersonalGoals = &personal
	user.ProfessionalGoals = &professional
	if user.OnboardingStatus == models.StatusProfiled {
		user.OnboardingStatus = models.StatusGoalsSet
	}

	if err := s.DB.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// RunInitialSetup performs the one-time AI generation step. Only reachable
// from goals_set; a failed generation leaves the status unchanged so the
// user can retry, a successful one moves to generated and closes the door.
func (s *UserService) RunInitialSetup(ctx context.Context, userID string, gen *GeneratorService) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	if user.OnboardingStatus != models.StatusGoalsSet {
		return nil, models.ErrOnboardingStep
	}

	if err := gen.GenerateInitialSetup(ctx, &user); err != nil {
		return nil, err
	}

	user.OnboardingStatus = models.StatusGenerated
	if err := s.DB.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// DashboardView is the main panel payload.
type DashboardView struct {
	Stats          StatsSnapshot    `json:"stats"`
	XPPercent      float64          `json:"xp_percent"`
	CoinsDisplay   string           `json:"coins_display"`
	UrgentMissions []models.Mission `json:"urgent_missions"`
	DailyHabits    []models.Habit   `json:"daily_habits"`
}

// Dashboard returns stats plus a couple of open missions and habits, cached
// briefly per user.
func (s *UserService) Dashboard(userID string) (*DashboardView, error) {
	cacheKey := fmt.Sprintf("dashboard:%s", userID)
	var cached DashboardView
	if err := cache.Get(cacheKey, &cached); err == nil {
		return &cached, nil
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}

	var missions []models.Mission
	if err := s.DB.Where("user_id = ? AND completed = ?", userID, false).
		Order("due_at asc").Limit(2).Find(&missions).Error; err != nil {
		return nil, err
	}

	var habits []models.Habit
	if err := s.DB.Where("user_id = ?", userID).Limit(3).Find(&habits).Error; err != nil {
		return nil, err
	}

	xpPercent := 0.0
	if user.XPToNextLevel > 0 {
		xpPercent = float64(user.CurrentXP) / float64(user.XPToNextLevel) * 100
	}

	view := &DashboardView{
		Stats:          *snapshotOf(&user, 0),
		XPPercent:      xpPercent,
		CoinsDisplay:   utils.FormatCoins(user.Coins),
		UrgentMissions: missions,
		DailyHabits:    habits,
	}

	if err := cache.Set(cacheKey, view, 30*time.Second); err != nil {
		s.Logger.Debug("dashboard_cache_set_failed", zap.Error(err))
	}
	return view, nil
}

// CreateLifeArea adds a manual life area.
func (s *UserService) CreateLifeArea(userID, name, icon string) (*models.LifeArea, error) {
	area := models.LifeArea{
		ID:     uuid.NewString(),
		Name:   name,
		Icon:   icon,
		UserID: userID,
	}
	if err := s.DB.Create(&area).Error; err != nil {
		return nil, err
	}
	return &area, nil
}

func (s *UserService) ListLifeAreas(userID string) ([]models.LifeArea, error) {
	var areas []models.LifeArea
	err := s.DB.Where("user_id = ?", userID).Order("created_at asc").Find(&areas).Error
	return areas, err
}

// CreateHabit adds a manual habit with default rewards.
func (s *UserService) CreateHabit(userID, title string, lifeAreaID *string) (*models.Habit, error) {
	habit := models.Habit{
		ID:            uuid.NewString(),
		Title:         title,
		XPReward:      models.DefaultHabitXP,
		CoinReward:    models.DefaultHabitCoins,
		HealthPenalty: models.DefaultHabitPenalty,
		UserID:        userID,
		LifeAreaID:    lifeAreaID,
	}
	if err := s.DB.Create(&habit).Error; err != nil {
		return nil, err
	}
	return &habit, nil
}

func (s *UserService) ListHabits(userID string) ([]models.Habit, error) {
	var habits []models.Habit
	err := s.DB.Where("user_id = ?", userID).Order("created_at asc").Find(&habits).Error
	return habits, err
}

// CreateMission adds a manual mission due today at the standard hour.
func (s *UserService) CreateMission(userID, title string, lifeAreaID *string) (*models.Mission, error) {
	mission := models.Mission{
		ID:         uuid.NewString(),
		Title:      title,
		XPReward:   models.MissionXPReward,
		CoinReward: models.DefaultMissionCoins,
		DueAt:      MissionDueAt(s.Clock, s.Zone),
		UserID:     userID,
		LifeAreaID: lifeAreaID,
	}
	if err := s.DB.Create(&mission).Error; err != nil {
		return nil, err
	}
	return &mission, nil
}

func (s *UserService) ListMissions(userID string) ([]models.Mission, error) {
	var missions []models.Mission
	err := s.DB.Where("user_id = ?", userID).Order("due_at asc").Find(&missions).Error
	return missions, err
}

func (s *UserService) ListShop(userID string) ([]models.ShopItem, error) {
	var items []models.ShopItem
	err := s.DB.Where("user_id = ?", userID).Order("cost asc").Find(&items).Error
	return items, err
}

// PurchaseShopItem deducts the item's cost from the user's coins. The item
// stays in the catalog; rewards are repurchasable until the next refresh.
func (s *UserService) PurchaseShopItem(userID, itemID string) (*StatsSnapshot, error) {
	var snap *StatsSnapshot
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var item models.ShopItem
		if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
			return err
		}
		if item.UserID != userID {
			return models.ErrNotOwner
		}

		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		if user.Coins < item.Cost {
			return models.ErrInsufficientCoins
		}

		user.Coins -= item.Cost
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		snap = snapshotOf(&user, 0)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("shop_item_purchased",
		zap.String("user_id", userID),
		zap.String("item_id", itemID),
	)
	return snap, nil
}

// FeedEntry is a public feed row with the author's username attached.
type FeedEntry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// ShareAchievement appends to the public feed and drops the feed cache.
func (s *UserService) ShareAchievement(userID, text string) (*models.SharedAchievement, error) {
	entry := models.SharedAchievement{
		ID:     uuid.NewString(),
		Text:   text,
		UserID: userID,
	}
	if err := s.DB.Create(&entry).Error; err != nil {
		return nil, err
	}
	if err := cache.Delete(feedCacheKey); err != nil {
		s.Logger.Debug("feed_cache_invalidate_failed", zap.Error(err))
	}
	return &entry, nil
}

// Feed returns the most recent public achievements across all users.
func (s *UserService) Feed() ([]FeedEntry, error) {
	var cached []FeedEntry
	if err := cache.Get(feedCacheKey, &cached); err == nil {
		return cached, nil
	}

	var entries []FeedEntry
	err := s.DB.Model(&models.SharedAchievement{}).
		Select("shared_achievements.id, shared_achievements.text, shared_achievements.created_at, users.username").
		Joins("JOIN users ON users.id = shared_achievements.user_id").
		Order("shared_achievements.created_at desc").
		Limit(feedLimit).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}

	if err := cache.Set(feedCacheKey, entries, feedCacheTTL); err != nil {
		s.Logger.Debug("feed_cache_set_failed", zap.Error(err))
	}
	return entries, nil
}

// ConsumeMessages returns unread assistant messages and marks them read, in
// one transaction. The polling client sees each message exactly once.
func (s *UserService) ConsumeMessages(userID string) ([]models.AssistantMessage, error) {
	var messages []models.AssistantMessage
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND read = ?", userID, false).
			Order("created_at asc").Find(&messages).Error; err != nil {
			return err
		}
		if len(messages) == 0 {
			return nil
		}
		ids := make([]string, len(messages))
		for i, m := range messages {
			ids[i] = m.ID
		}
		return tx.Model(&models.AssistantMessage{}).
			Where("id IN ?", ids).Update("read", true).Error
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// GetUser loads a user or gorm.ErrRecordNotFound.
func (s *UserService) GetUser(userID string) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
