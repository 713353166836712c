package service

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"mathdrill/internal/database"
	"mathdrill/internal/logger"
	"mathdrill/internal/models"
	"mathdrill/internal/repository"
)

// QuestionsPerLevel is how many questions the seeder generates per skill and level
const QuestionsPerLevel = 12

type generatedQuestion struct {
	prompt  string
	answer  string
	explain string
	choices []string
}

type questionGenerator func(r *rand.Rand, level models.Level) generatedQuestion

type seedSkill struct {
	skill    models.Skill
	generate questionGenerator
}

func randInt(r *rand.Rand, min, max int) int {
	return r.Intn(max-min+1) + min
}

// byLevel picks one of three values for easy, medium and hard
func byLevel(level models.Level, easy, medium, hard int) int {
	switch level {
	case models.LevelEasy:
		return easy
	case models.LevelHard:
		return hard
	default:
		return medium
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

var defaultSkills = []seedSkill{
	{
		skill: models.Skill{Name: "Addition (0-10)", GradeBand: models.GradeBandK2, Category: "Arithmetic",
			Description: "Adding two numbers with a sum up to 10.", SortOrder: 1},
		generate: func(r *rand.Rand, level models.Level) generatedQuestion {
			max := byLevel(level, 5, 8, 10)
			a := randInt(r, 1, max-1)
			b := randInt(r, 1, max-a)
			return generatedQuestion{
				prompt:  fmt.Sprintf("%d + %d = ?", a, b),
				answer:  itoa(a + b),
				explain: fmt.Sprintf("Start with %d and count up %d more.", a, b),
			}
		},
	},
	{
		skill: models.Skill{Name: "Subtraction (0-10)", GradeBand: models.GradeBandK2, Category: "Arithmetic",
			Description: "Subtracting two numbers where both are 10 or less.", SortOrder: 2},
		generate: func(r *rand.Rand, level models.Level) generatedQuestion {
			a := randInt(r, 2, byLevel(level, 5, 8, 10))
			b := randInt(r, 1, a-1)
			return generatedQuestion{
				prompt:  fmt.Sprintf("%d - %d = ?", a, b),
				answer:  itoa(a - b),
				explain: fmt.Sprintf("Start with %d and count down %d.", a, b),
			}
		},
	},
	{
		skill: models.Skill{Name: "Number Bonds to 10", GradeBand: models.GradeBandK2, Category: "Number Sense",
			Description: "Finding the missing number to make 10.", SortOrder: 3},
		generate: func(r *rand.Rand, level models.Level) generatedQuestion {
			target := byLevel(level, 5, 10, 10)
			a := randInt(r, 1, target-1)
			prompt := fmt.Sprintf("%d + ? = %d", a, target)
			if level == models.LevelHard {
				prompt = fmt.Sprintf("? + %d = %d", a, target)
			}
			return generatedQuestion{
				prompt:  prompt,
				answer:  itoa(target - a),
				explain: fmt.Sprintf("How many more do you need to get from %d to %d?", a, target),
			}
		},
	},
	{
		skill: models.Skill{Name: "Place Value (Tens/Ones)", GradeBand: models.GradeBandK2, Category: "Number Sense",
			Description: "Understanding tens and ones in two-digit numbers.", SortOrder: 4},
		generate: func(r *rand.Rand, level models.Level) generatedQuestion {
			num := randInt(r, byLevel(level, 11, 20, 50), 99)
			place, digit := "ones", num%10
			if r.Intn(2) == 0 {
				place, digit = "tens", num/10
			}
			return generatedQuestion{
				prompt:  fmt.Sprintf("What digit is in the %s place of %d?", place, num),
				answer:  itoa(digit),
				explain: fmt.Sprintf("In %d, the %s digit is %d.", num, place, digit),
			}
		},
	},
	{
		skill: models.Skill{Name: "Addition (0-1000)", GradeBand: models.GradeBand35, Category: "Arithmetic",
			Description: "Adding multi-digit numbers.", SortOrder: 1},
		generate: func(r *rand.Rand, level models.Level) generatedQuestion {
			max := byLevel(level, 99, 499, 999)
			a := randInt(r, 10, max/2)
			b := randInt(r, 10, max-a)
			return generatedQuestion{
				prompt:  fmt.Sprintf("%d + %d = ?", a, b),
				answer:  itoa(a + b),
				explain: fmt.Sprintf("Add the ones, then the tens, then the hundreds of %d and %d, carrying as needed.", a, b),
			}
		},
	},
	{
		skill: models.Skill{Name: "Subtraction (0-1000)", GradeBand: models.GradeBand35, Category: "Arithmetic",
			Description: "Subtracting multi-digit numbers.", SortOrder: 2},
		generate: func(r *rand.Rand, level models.Level) generatedQuestion {
			a := randInt(r, 20, byLevel(level, 99, 499, 999))
			b := randInt(r, 10, a-1)
			return generatedQuestion{
				prompt:  fmt.Sprintf("%d - %d = ?", a, b),
				answer:  itoa(a - b),
				explain: fmt.Sprintf("Subtract place by place, borrowing from the next place when a digit of %d is too small.", a),
			}
		},
	},
	{
		skill: models.Skill{Name: "Multiplication Facts (0-12)", GradeBand: models.GradeBand35, Category: "Arithmetic",
			Description: "Mastering multiplication tables up to 12.", SortOrder: 3},
		generate: func(r *rand.Rand, level models.Level) generatedQuestion {
			max := byLevel(level, 5, 9, 12)
			a, b := randInt(r, 2, max), randInt(r, 2, max)
			return generatedQuestion{
				prompt:  fmt.Sprintf("%d × %d = ?", a, b),
				answer:  itoa(a * b),
				explain: fmt.Sprintf("This is %d groups of %d.", a, b),
			}
		},
	},
	{
		skill: models.Skill{Name: "Division Facts (0-12)", GradeBand: models.GradeBand35, Category: "Arithmetic",
			Description: "Mastering division facts up to 12.", SortOrder: 4},
		generate: func(r *rand.Rand, level models.Level) generatedQuestion {
			max := byLevel(level, 5, 9, 12)
			a, b := randInt(r, 2, max), randInt(r, 2, max)
			return generatedQuestion{
				prompt:  fmt.Sprintf("%d ÷ %d = ?", a*b, a),
				answer:  itoa(b),
				explain: fmt.Sprintf("Think: what number times %d equals %d?", a, a*b),
			}
		},
	},
	{
		skill: models.Skill{Name: "Basic Fractions", GradeBand: models.GradeBand35, Category: "Fractions",
			Description: "Identifying and comparing simple fractions.", SortOrder: 5},
		generate: func(r *rand.Rand, level models.Level) generatedQuestion {
			dens := []int{2, 3, 4}
			if level != models.LevelEasy {
				dens = []int{4, 5, 6, 8}
			}
			den := dens[r.Intn(len(dens))]
			num := randInt(r, 1, den-1)
			answer := fmt.Sprintf("%d/%d", num, den)
			choices := uniqueChoices(r, answer, func() string {
				switch r.Intn(3) {
				case 0:
					return fmt.Sprintf("%d/%d", den-num, den)
				case 1:
					return fmt.Sprintf("%d/%d", num, den+1)
				default:
					return fmt.Sprintf("%d/%d", randInt(r, 1, den), den+randInt(r, 1, 2))
				}
			})
			return generatedQuestion{
				prompt:  fmt.Sprintf("A shape is cut into %d equal parts and %d are shaded. Which fraction is shaded?", den, num),
				answer:  answer,
				explain: fmt.Sprintf("There are %d total parts, and %d are shaded.", den, num),
				choices: choices,
			}
		},
	},
	{
		skill: models.Skill{Name: "Multi-digit Multiplication", GradeBand: models.GradeBand68, Category: "Arithmetic",
			Description: "Multiplying numbers with two or more digits.", SortOrder: 1},
		generate: func(r *rand.Rand, level models.Level) generatedQuestion {
			a := randInt(r, 10, byLevel(level, 20, 60, 99))
			b := randInt(r, byLevel(level, 2, 10, 10), byLevel(level, 9, 30, 50))
			return generatedQuestion{
				prompt: fmt.Sprintf("%d × %d = ?", a, b),
				answer: itoa(a * b),
				explain: fmt.Sprintf("Break it into parts: (%d × %d) + (%d × %d).",
					a, b/10*10, a, b%10),
			}
		},
	},
	{
		skill: models.Skill{Name: "Long Division", GradeBand: models.GradeBand68, Category: "Arithmetic",
			Description: "Dividing large numbers, including remainders.", SortOrder: 2},
		generate: func(r *rand.Rand, level models.Level) generatedQuestion {
			divisor := randInt(r, 2, byLevel(level, 9, 12, 25))
			quotient := randInt(r, 10, byLevel(level, 30, 60, 99))
			return generatedQuestion{
				prompt:  fmt.Sprintf("%d ÷ %d = ?", divisor*quotient, divisor),
				answer:  itoa(quotient),
				explain: fmt.Sprintf("Divide step by step: how many times does %d go into each part of %d?", divisor, divisor*quotient),
			}
		},
	},
	{
		skill: models.Skill{Name: "Adding/Subtracting Fractions", GradeBand: models.GradeBand68, Category: "Fractions",
			Description: "Adding and subtracting fractions with like and unlike denominators.", SortOrder: 3},
		generate: func(r *rand.Rand, level models.Level) generatedQuestion {
			den := []int{4, 6, 8, 10, 12}[r.Intn(5)]
			a := randInt(r, 1, den-2)
			b := randInt(r, 1, den-1-a)
			if level == models.LevelHard && a > b {
				return generatedQuestion{
					prompt:  fmt.Sprintf("%d/%d - %d/%d = ? (write as a/b, not simplified)", a, den, b, den),
					answer:  fmt.Sprintf("%d/%d", a-b, den),
					explain: "With the same denominator, subtract the numerators and keep the denominator.",
				}
			}
			return generatedQuestion{
				prompt:  fmt.Sprintf("%d/%d + %d/%d = ? (write as a/b, not simplified)", a, den, b, den),
				answer:  fmt.Sprintf("%d/%d", a+b, den),
				explain: "With the same denominator, add the numerators and keep the denominator.",
			}
		},
	},
	{
		skill: models.Skill{Name: "Percents of Numbers", GradeBand: models.GradeBand68, Category: "Ratios & Percents",
			Description: "Finding percentages of numbers (e.g., 10%, 25%, 50%).", SortOrder: 4},
		generate: func(r *rand.Rand, level models.Level) generatedQuestion {
			percents := map[models.Level][]int{
				models.LevelEasy:   {50, 10},
				models.LevelMedium: {10, 25, 50},
				models.LevelHard:   {20, 25, 75},
			}[level]
			if percents == nil {
				percents = []int{10, 25, 50}
			}
			perc := percents[r.Intn(len(percents))]
			base := randInt(r, 2, 20) * 20
			return generatedQuestion{
				prompt:  fmt.Sprintf("What is %d%% of %d?", perc, base),
				answer:  itoa(base * perc / 100),
				explain: fmt.Sprintf("%d%% is the same as the fraction %d/100.", perc, perc),
			}
		},
	},
	{
		skill: models.Skill{Name: "Order of Operations", GradeBand: models.GradeBand68, Category: "Algebraic Thinking",
			Description: "Using PEMDAS to solve expressions.", SortOrder: 5},
		generate: func(r *rand.Rand, level models.Level) generatedQuestion {
			a, b, c := randInt(r, 2, 10), randInt(r, 2, 5), randInt(r, 2, 10)
			switch level {
			case models.LevelHard:
				d := randInt(r, 2, 5)
				return generatedQuestion{
					prompt:  fmt.Sprintf("(%d + %d) × %d - %d = ?", a, b, c, d),
					answer:  itoa((a+b)*c - d),
					explain: fmt.Sprintf("Parentheses first: %d + %d, then multiply by %d, then subtract %d.", a, b, c, d),
				}
			case models.LevelEasy:
				return generatedQuestion{
					prompt:  fmt.Sprintf("%d × %d + %d = ?", b, c, a),
					answer:  itoa(b*c + a),
					explain: fmt.Sprintf("Multiply %d × %d first, then add %d.", b, c, a),
				}
			default:
				return generatedQuestion{
					prompt:  fmt.Sprintf("%d + %d × %d = ?", a, b, c),
					answer:  itoa(a + b*c),
					explain: fmt.Sprintf("Remember PEMDAS: Multiply %d × %d first, then add %d.", b, c, a),
				}
			}
		},
	},
}

// uniqueChoices returns four distinct shuffled choices including answer
func uniqueChoices(r *rand.Rand, answer string, distractor func() string) []string {
	seen := map[string]bool{answer: true}
	choices := []string{answer}
	for tries := 0; len(choices) < 4 && tries < 50; tries++ {
		c := distractor()
		if !seen[c] {
			seen[c] = true
			choices = append(choices, c)
		}
	}
	r.Shuffle(len(choices), func(i, j int) { choices[i], choices[j] = choices[j], choices[i] })
	return choices
}

// SeedService installs default content and demo history
type SeedService struct {
	db  *database.DB
	log *logger.Logger
	rnd *rand.Rand
	now func() time.Time
}

// NewSeedService creates a new seed service
func NewSeedService(db *database.DB, log *logger.Logger) *SeedService {
	return &SeedService{
		db:  db,
		log: log.With("component", "SeedService"),
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// SeedContent installs the default skills and questions when the store has none.
// It returns the number of questions created.
func (s *SeedService) SeedContent(ctx context.Context) (int, error) {
	skillRepo := repository.NewSkillRepository(s.db)
	existing, err := skillRepo.List(ctx, repository.ListOptions{Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("failed to check skills: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	skills := make([]models.Skill, len(defaultSkills))
	for i, d := range defaultSkills {
		skills[i] = d.skill
	}

	var questions []models.Question
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := repository.NewSkillRepository(tx).BulkCreate(ctx, skills); err != nil {
			return fmt.Errorf("failed to seed skills: %w", err)
		}
		questions = s.generateQuestions(skills)
		if err := repository.NewQuestionRepository(tx).BulkCreate(ctx, questions); err != nil {
			return fmt.Errorf("failed to seed questions: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("Seeded content", "skills", len(skills), "questions", len(questions))
	return len(questions), nil
}

// ResetContent removes every skill and question, drops the review items that
// pointed at them and installs fresh default content. Attempts are kept.
func (s *SeedService) ResetContent(ctx context.Context) (int, error) {
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		skillRepo := repository.NewSkillRepository(tx)
		questionRepo := repository.NewQuestionRepository(tx)

		if err := repository.NewReviewRepository(tx).DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to clear review items: %w", err)
		}
		questions, err := questionRepo.Filter(ctx, models.QuestionFilter{})
		if err != nil {
			return err
		}
		questionIDs := make([]string, len(questions))
		for i, q := range questions {
			questionIDs[i] = q.ID
		}
		if err := questionRepo.BulkDelete(ctx, questionIDs); err != nil {
			return fmt.Errorf("failed to delete questions: %w", err)
		}
		skills, err := skillRepo.List(ctx, repository.ListOptions{})
		if err != nil {
			return err
		}
		skillIDs := make([]string, len(skills))
		for i, sk := range skills {
			skillIDs[i] = sk.ID
		}
		if err := skillRepo.BulkDelete(ctx, skillIDs); err != nil {
			return fmt.Errorf("failed to delete skills: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("Cleared content")
	return s.SeedContent(ctx)
}

// generateQuestions builds QuestionsPerLevel questions for every skill and level,
// skipping prompts already generated for the same skill and level
func (s *SeedService) generateQuestions(skills []models.Skill) []models.Question {
	var questions []models.Question
	for i, d := range defaultSkills {
		for _, level := range []models.Level{models.LevelEasy, models.LevelMedium, models.LevelHard} {
			seen := make(map[string]bool)
			for tries := 0; len(seen) < QuestionsPerLevel && tries < QuestionsPerLevel*10; tries++ {
				g := d.generate(s.rnd, level)
				if seen[g.prompt] {
					continue
				}
				seen[g.prompt] = true
				format := models.FormatNumeric
				if len(g.choices) > 0 {
					format = models.FormatMultipleChoice
				}
				questions = append(questions, models.Question{
					SkillID:       skills[i].ID,
					Level:         level,
					Prompt:        g.prompt,
					CorrectAnswer: g.answer,
					Format:        format,
					Choices:       g.choices,
					Explain:       g.explain,
				})
			}
		}
	}
	return questions
}

// SeedDemoData replaces practice history with a synthetic fortnight of attempts,
// the review items those misses imply, and one unlocked achievement.
func (s *SeedService) SeedDemoData(ctx context.Context) error {
	questions, err := repository.NewQuestionRepository(s.db).Filter(ctx, models.QuestionFilter{})
	if err != nil {
		return fmt.Errorf("failed to load questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrEmptyPool
	}

	now := s.now()
	var attempts []models.Attempt
	var reviews []models.ReviewItem
	queued := make(map[string]bool)
	for i := 0; i < 140; i++ {
		q := questions[s.rnd.Intn(len(questions))]
		correct := s.rnd.Float64() > 0.2
		answer := q.CorrectAnswer
		if !correct {
			answer = "?"
		}
		day := i / 10
		attempts = append(attempts, models.Attempt{
			QuestionID:     q.ID,
			SkillID:        q.SkillID,
			LevelAtAttempt: q.Level,
			Answer:         answer,
			Correct:        correct,
			TimeMs:         int64(randInt(s.rnd, 2000, 15000)),
			SessionID:      fmt.Sprintf("demo-session-%d", day),
			CreatedAt:      now.AddDate(0, 0, day-13).Add(time.Duration(i%10) * time.Minute),
		})
		if !correct && !queued[q.ID] {
			queued[q.ID] = true
			reviews = append(reviews, models.ReviewItem{
				QuestionID:  q.ID,
				SkillID:     q.SkillID,
				NextDueDate: now,
				Interval:    1,
			})
		}
	}

	rule, _ := findRule("first-100")
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		attemptRepo := repository.NewAttemptRepository(tx)
		reviewRepo := repository.NewReviewRepository(tx)
		achievementRepo := repository.NewAchievementRepository(tx)
		if err := attemptRepo.DeleteAll(ctx); err != nil {
			return err
		}
		if err := reviewRepo.DeleteAll(ctx); err != nil {
			return err
		}
		if err := achievementRepo.DeleteAll(ctx); err != nil {
			return err
		}
		if err := attemptRepo.BulkCreate(ctx, attempts); err != nil {
			return fmt.Errorf("failed to seed attempts: %w", err)
		}
		if err := reviewRepo.BulkCreate(ctx, reviews); err != nil {
			return fmt.Errorf("failed to seed reviews: %w", err)
		}
		return achievementRepo.Create(ctx, &models.Achievement{
			Name: rule.Name, Description: rule.Description, BadgeIcon: rule.BadgeIcon, UnlockedDate: now,
		})
	})
	if err != nil {
		return err
	}
	s.log.Info("Seeded demo data", "attempts", len(attempts), "reviews", len(reviews))
	return nil
}
