package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"progreso/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Missions come due at a fixed local civil time, independent of when the
// generation job ran that day.
const missionDueHour = 18

// Prompt templates are versioned: the reward ranges and JSON schemas below
// are business rules, and the post-parse validation in this file must match
// the schema each template requests.
const initialSetupPromptV1 = `You are the onboarding engine of a gamified productivity app.

User profile:
- Age bracket: %s
- Free time: %s
- Hobbies: %s
- Personal goals: %s
- Professional goals: %s

Design this user's starting content. Respond with a single JSON object, no
prose, with exactly these keys:
{
  "lifeAreas": [{"name": "...", "icon": "..."}],
  "habits": [{"title": "...", "area": "<life area name>", "xpReward": 5-20, "coinReward": 1-10, "healthPenalty": 1-10}],
  "shopItems": [{"name": "...", "area": "<life area name>", "cost": 20-300}]
}
Create 3 to 5 life areas, exactly %d habits and exactly %d shop items. Do NOT
include missions. Habit titles are short daily actions; shop items are small
real-life rewards the user would enjoy.`

const dailyMissionsPromptV1 = `You are the daily mission writer of a gamified productivity app.

The user cares about these life areas: %s.
Their goals: personal "%s", professional "%s".

Write exactly %d mission(s) for today. Respond with a JSON array (or a single
JSON object if one mission), no prose, each element shaped as:
{"title": "...", "area": "<life area name>", "coinReward": 5-25}
Missions are concrete tasks achievable before this evening.`

const shopRefreshPromptV1 = `You are the reward shop curator of a gamified productivity app.

The user's hobbies: %s. Their life areas: %s.

Write exactly %d shop item(s): small real-life rewards the user can buy with
in-game coins. Respond with a JSON array (or a single JSON object if one
item), no prose, each element shaped as:
{"name": "...", "area": "<life area name>", "cost": 20-300}`

const dailyReportPromptV1 = `You are the user's personal assistant in a gamified productivity app.
Your personality: %s

Today the user completed %d mission(s) and failed %d.
Write a short message (2-4 sentences, no JSON, no markdown) reacting to their
day in your personality's voice.`

const failureNoticePromptV1 = `You are the user's personal assistant in a gamified productivity app.
Your personality: %s

These missions expired unfinished: %s.
The user lost %d health points.
Write a short message (2-4 sentences, no JSON, no markdown) delivering the
bad news in your personality's voice.`

// GeneratorService turns a user's profile into prompts, invokes the text
// generation service, and materializes validated results into domain rows.
// AI output is untrusted: malformed items are skipped or defaulted, and a
// malformed top-level shape aborts the whole operation with a rollback.
type GeneratorService struct {
	DB     *gorm.DB
	Gen    TextGenerator
	Clock  clockwork.Clock
	Zone   *time.Location
	Logger *zap.Logger
}

func NewGeneratorService(db *gorm.DB, gen TextGenerator, clock clockwork.Clock, zone *time.Location, logger *zap.Logger) *GeneratorService {
	return &GeneratorService{DB: db, Gen: gen, Clock: clock, Zone: zone, Logger: logger}
}

type generatedArea struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type generatedHabit struct {
	Title         string `json:"title"`
	Area          string `json:"area"`
	XPReward      int    `json:"xpReward"`
	CoinReward    int    `json:"coinReward"`
	HealthPenalty int    `json:"healthPenalty"`
}

type generatedShopItem struct {
	Name string `json:"name"`
	Area string `json:"area"`
	Cost int    `json:"cost"`
}

type generatedMission struct {
	Title      string `json:"title"`
	Area       string `json:"area"`
	CoinReward int    `json:"coinReward"`
}

type initialSetupPayload struct {
	LifeAreas []generatedArea     `json:"lifeAreas"`
	Habits    []generatedHabit    `json:"habits"`
	ShopItems []generatedShopItem `json:"shopItems"`
}

// extractJSON strips markdown code fences and returns the first balanced
// JSON object or array in the response, or "" if none is found.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimPrefix(response, "```")
		if i := strings.LastIndex(response, "```"); i >= 0 {
			response = response[:i]
		}
		response = strings.TrimSpace(response)
	}

	start := strings.IndexAny(response, "{[")
	if start == -1 {
		return ""
	}
	opening := response[start]
	closing := byte('}')
	if opening == '[' {
		closing = ']'
	}

	depth := 0
	inString := false
	for i := start; i < len(response); i++ {
		c := response[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case opening:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}
	return ""
}

func orDefault(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func strOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

// MissionDueAt computes today's due instant: the fixed civil hour in the
// fixed zone, converted to UTC. Two missions generated at different hours of
// the same calendar day share the same due instant.
func MissionDueAt(clock clockwork.Clock, zone *time.Location) time.Time {
	now := clock.Now().In(zone)
	due := time.Date(now.Year(), now.Month(), now.Day(), missionDueHour, 0, 0, 0, zone)
	return due.UTC()
}

// areaIndex maps the user's current life area names to their IDs for exact
// string resolution of AI-provided area names.
func areaIndex(tx *gorm.DB, userID string) (map[string]string, error) {
	var areas []models.LifeArea
	if err := tx.Where("user_id = ?", userID).Find(&areas).Error; err != nil {
		return nil, err
	}
	idx := make(map[string]string, len(areas))
	for _, a := range areas {
		idx[a.Name] = a.ID
	}
	return idx, nil
}

// resolveArea returns a nullable FK: a name the AI invented resolves to nil
// rather than an error.
func resolveArea(idx map[string]string, name string) *string {
	if id, ok := idx[name]; ok {
		return &id
	}
	return nil
}

// GenerateInitialSetup creates the user's starting life areas, habits and
// shop items from one AI call.
//
// Precondition: callers must ensure this runs at most once per user (the
// onboarding state machine enforces it); this method does not re-check.
func (s *GeneratorService) GenerateInitialSetup(ctx context.Context, user *models.User) error {
	prompt := fmt.Sprintf(initialSetupPromptV1,
		strOr(user.AgeBracket, "unknown"),
		strOr(user.FreeTime, "unknown"),
		strOr(user.Hobbies, "not specified"),
		strOr(user.PersonalGoals, "not specified"),
		strOr(user.ProfessionalGoals, "not specified"),
		user.HabitsToGenerate,
		user.ShopItemsPerDay,
	)

	raw, err := s.Gen.Generate(ctx, prompt, true)
	if err != nil {
		return err
	}

	var payload initialSetupPayload
	jsonStr := extractJSON(raw)
	if jsonStr == "" || json.Unmarshal([]byte(jsonStr), &payload) != nil {
		return fmt.Errorf("initial setup: %w", models.ErrInvalidShape)
	}
	if len(payload.LifeAreas) == 0 && len(payload.Habits) == 0 && len(payload.ShopItems) == 0 {
		return fmt.Errorf("initial setup: %w", models.ErrInvalidShape)
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		idx := make(map[string]string, len(payload.LifeAreas))
		for _, ga := range payload.LifeAreas {
			if ga.Name == "" {
				continue
			}
			icon := ga.Icon
			if icon == "" {
				icon = slug.Make(ga.Name)
			}
			area := models.LifeArea{
				ID:     uuid.NewString(),
				Name:   ga.Name,
				Icon:   icon,
				UserID: user.ID,
			}
			if err := tx.Create(&area).Error; err != nil {
				return err
			}
			idx[area.Name] = area.ID
		}

		for _, gh := range payload.Habits {
			if gh.Title == "" {
				continue
			}
			habit := models.Habit{
				ID:            uuid.NewString(),
				Title:         gh.Title,
				XPReward:      orDefault(gh.XPReward, models.DefaultHabitXP),
				CoinReward:    orDefault(gh.CoinReward, models.DefaultHabitCoins),
				HealthPenalty: orDefault(gh.HealthPenalty, models.DefaultHabitPenalty),
				UserID:        user.ID,
				LifeAreaID:    resolveArea(idx, gh.Area),
			}
			if err := tx.Create(&habit).Error; err != nil {
				return err
			}
		}

		for _, gi := range payload.ShopItems {
			if gi.Name == "" {
				continue
			}
			item := models.ShopItem{
				ID:         uuid.NewString(),
				Name:       gi.Name,
				Cost:       orDefault(gi.Cost, models.DefaultShopItemCost),
				UserID:     user.ID,
				LifeAreaID: resolveArea(idx, gi.Area),
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}

		s.Logger.Info("initial_setup_generated",
			zap.String("user_id", user.ID),
			zap.Int("life_areas", len(payload.LifeAreas)),
			zap.Int("habits", len(payload.Habits)),
			zap.Int("shop_items", len(payload.ShopItems)),
		)
		return nil
	})
}

// decodeMissionList normalizes the two response shapes the model produces: a
// single object when one mission was requested, an array otherwise.
func decodeMissionList(raw string) ([]generatedMission, error) {
	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return nil, models.ErrInvalidShape
	}

	var list []generatedMission
	if err := json.Unmarshal([]byte(jsonStr), &list); err == nil {
		return list, nil
	}
	var single generatedMission
	if err := json.Unmarshal([]byte(jsonStr), &single); err == nil {
		return []generatedMission{single}, nil
	}
	return nil, models.ErrInvalidShape
}

func decodeShopList(raw string) ([]generatedShopItem, error) {
	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return nil, models.ErrInvalidShape
	}

	var list []generatedShopItem
	if err := json.Unmarshal([]byte(jsonStr), &list); err == nil {
		return list, nil
	}
	var single generatedShopItem
	if err := json.Unmarshal([]byte(jsonStr), &single); err == nil {
		return []generatedShopItem{single}, nil
	}
	return nil, models.ErrInvalidShape
}

// GenerateDailyMissions writes today's missions for the user. XP is fixed at
// MissionXPReward no matter what the model answered; coin rewards come from
// the model with a default when absent.
func (s *GeneratorService) GenerateDailyMissions(ctx context.Context, user *models.User) ([]models.Mission, error) {
	n := user.MissionsPerDay
	if n < 1 {
		n = 1
	}

	idx, err := areaIndex(s.DB, user.ID)
	if err != nil {
		return nil, err
	}
	areaNames := make([]string, 0, len(idx))
	for name := range idx {
		areaNames = append(areaNames, name)
	}

	prompt := fmt.Sprintf(dailyMissionsPromptV1,
		strings.Join(areaNames, ", "),
		strOr(user.PersonalGoals, "not specified"),
		strOr(user.ProfessionalGoals, "not specified"),
		n,
	)

	raw, err := s.Gen.Generate(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	generated, err := decodeMissionList(raw)
	if err != nil {
		return nil, fmt.Errorf("daily missions: %w", err)
	}
	if len(generated) > n {
		generated = generated[:n]
	}

	dueAt := MissionDueAt(s.Clock, s.Zone)
	var missions []models.Mission
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for _, gm := range generated {
			if gm.Title == "" {
				continue
			}
			m := models.Mission{
				ID:         uuid.NewString(),
				Title:      gm.Title,
				XPReward:   models.MissionXPReward,
				CoinReward: orDefault(gm.CoinReward, models.DefaultMissionCoins),
				DueAt:      dueAt,
				UserID:     user.ID,
				LifeAreaID: resolveArea(idx, gm.Area),
			}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
			missions = append(missions, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("daily_missions_generated",
		zap.String("user_id", user.ID),
		zap.Int("count", len(missions)),
		zap.Time("due_at", dueAt),
	)
	return missions, nil
}

// GenerateShopRefresh replaces the user's entire shop catalog. Destructive:
// the old rows are deleted, not merged. Parsing happens before the
// transaction, so a bad response leaves the old catalog untouched.
func (s *GeneratorService) GenerateShopRefresh(ctx context.Context, user *models.User) error {
	n := user.ShopItemsPerDay
	if n < 1 {
		n = 1
	}

	idx, err := areaIndex(s.DB, user.ID)
	if err != nil {
		return err
	}
	areaNames := make([]string, 0, len(idx))
	for name := range idx {
		areaNames = append(areaNames, name)
	}

	prompt := fmt.Sprintf(shopRefreshPromptV1,
		strOr(user.Hobbies, "not specified"),
		strings.Join(areaNames, ", "),
		n,
	)

	raw, err := s.Gen.Generate(ctx, prompt, true)
	if err != nil {
		return err
	}

	generated, err := decodeShopList(raw)
	if err != nil {
		return fmt.Errorf("shop refresh: %w", err)
	}
	if len(generated) > n {
		generated = generated[:n]
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.ShopItem{}).Error; err != nil {
			return err
		}
		for _, gi := range generated {
			if gi.Name == "" {
				continue
			}
			item := models.ShopItem{
				ID:         uuid.NewString(),
				Name:       gi.Name,
				Cost:       orDefault(gi.Cost, models.DefaultShopItemCost),
				UserID:     user.ID,
				LifeAreaID: resolveArea(idx, gi.Area),
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
		s.Logger.Info("shop_refreshed",
			zap.String("user_id", user.ID),
			zap.Int("items", len(generated)),
		)
		return nil
	})
}

// resolvePersonality looks up the user's selected personality by name,
// falling back to the default catalog entry on a stale reference.
func (s *GeneratorService) resolvePersonality(name string) models.AssistantPersonality {
	var p models.AssistantPersonality
	if err := s.DB.First(&p, "name = ?", name).Error; err == nil {
		return p
	}
	if name != models.DefaultPersonalityName {
		if err := s.DB.First(&p, "name = ?", models.DefaultPersonalityName).Error; err == nil {
			return p
		}
	}
	return models.PersonalityCatalog[0]
}

func (s *GeneratorService) storeAssistantMessage(userID, content string) error {
	msg := models.AssistantMessage{
		ID:      uuid.NewString(),
		Content: strings.TrimSpace(content),
		UserID:  userID,
	}
	return s.DB.Create(&msg).Error
}

// GenerateDailyReport stores one personality-voiced message summarizing the
// day's mission outcomes.
func (s *GeneratorService) GenerateDailyReport(ctx context.Context, user *models.User, completed, failed int) error {
	personality := s.resolvePersonality(user.AssistantPersonality)
	prompt := fmt.Sprintf(dailyReportPromptV1, personality.PromptDescription, completed, failed)

	text, err := s.Gen.Generate(ctx, prompt, false)
	if err != nil {
		return err
	}
	return s.storeAssistantMessage(user.ID, text)
}

// GenerateFailureNotice stores one message listing the user's expired
// missions and the total health penalty they cost.
func (s *GeneratorService) GenerateFailureNotice(ctx context.Context, user *models.User, missedTitles []string, totalPenalty int) error {
	personality := s.resolvePersonality(user.AssistantPersonality)
	prompt := fmt.Sprintf(failureNoticePromptV1,
		personality.PromptDescription,
		strings.Join(missedTitles, "; "),
		totalPenalty,
	)

	text, err := s.Gen.Generate(ctx, prompt, false)
	if err != nil {
		return err
	}
	return s.storeAssistantMessage(user.ID, text)
}
