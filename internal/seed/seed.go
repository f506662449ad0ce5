package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"

	"tipa/internal/membership"
	"tipa/internal/middleware"
	"tipa/internal/models"
	"tipa/internal/repository"
)

// Summary counts what a run created.
type Summary struct {
	Members   int `json:"members"`
	Threads   int `json:"threads"`
	Comments  int `json:"comments"`
	Events    int `json:"events"`
	RSVPs     int `json:"rsvps"`
	Resources int `json:"resources"`
}

// Seeder writes demo data through the repositories so derived columns such
// as threads.latest_comment_at stay consistent.
type Seeder struct {
	members   repository.MemberRepository
	threads   repository.ThreadRepository
	comments  repository.CommentRepository
	events    repository.EventRepository
	resources repository.ResourceRepository
	faker     *gofakeit.Faker
	preset    Preset
	now       time.Time
}

func NewSeeder(db *gorm.DB, p Preset, now time.Time) *Seeder {
	return &Seeder{
		members:   repository.NewMemberRepository(db),
		threads:   repository.NewThreadRepository(db),
		comments:  repository.NewCommentRepository(db),
		events:    repository.NewEventRepository(db),
		resources: repository.NewResourceRepository(db),
		faker:     gofakeit.New(p.Seed),
		preset:    p,
		now:       now.UTC(),
	}
}

// Run creates everything the preset asks for.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	if err := s.preset.Validate(); err != nil {
		return sum, err
	}
	middleware.Logger.InfoContext(ctx, "Seeding database", "members", s.preset.Members, "admins", s.preset.Admins)

	admins, approved, err := s.seedMembers(ctx, &sum)
	if err != nil {
		return sum, err
	}
	authors := append(append([]*models.Member{}, admins...), approved...)

	if err := s.seedForum(ctx, authors, &sum); err != nil {
		return sum, err
	}
	if err := s.seedEvents(ctx, admins, authors, &sum); err != nil {
		return sum, err
	}
	if err := s.seedResources(ctx, admins, &sum); err != nil {
		return sum, err
	}

	middleware.Logger.InfoContext(ctx, "Seeding completed",
		"members", sum.Members, "threads", sum.Threads, "comments", sum.Comments,
		"events", sum.Events, "rsvps", sum.RSVPs, "resources", sum.Resources)
	return sum, nil
}

func (s *Seeder) seedMembers(ctx context.Context, sum *Summary) (admins, approved []*models.Member, err error) {
	total := s.preset.Admins + s.preset.Members
	for i := 0; i < total; i++ {
		m := s.buildMember(i)
		if i < s.preset.Admins {
			m.IsAdmin = true
			m.Status = membership.StatusApproved
			m.MembershipLevel = membership.LevelHonorary
		}
		if err := s.members.Create(ctx, m); err != nil {
			return nil, nil, fmt.Errorf("create member %s: %w", m.Email, err)
		}
		sum.Members++

		switch {
		case m.IsAdmin:
			admins = append(admins, m)
		case m.Status == membership.StatusApproved:
			approved = append(approved, m)
		}
	}
	return admins, approved, nil
}

func (s *Seeder) buildMember(i int) *models.Member {
	first, last := s.faker.FirstName(), s.faker.LastName()
	created := s.pastTime(s.preset.HistoryDays)

	m := &models.Member{
		AuthSubject:     "seed|" + s.faker.UUID(),
		Email:           fmt.Sprintf("%s.%s.%d@%s", strings.ToLower(first), strings.ToLower(last), i, "example.org"),
		FullName:        first + " " + last,
		Company:         s.faker.Company(),
		Bio:             s.faker.Sentence(12),
		Status:          membership.StatusApproved,
		MembershipLevel: membership.Levels[s.faker.Number(0, len(membership.Levels)-1)],
		CreatedAt:       created,
	}
	if s.faker.Float64Range(0, 1) < s.preset.PendingRatio {
		m.Status = membership.StatusPending
		return m
	}

	approvedAt := created.Add(time.Duration(s.faker.Number(1, 72)) * time.Hour)
	m.ApprovedAt = &approvedAt
	// About a third have paid for a period that runs past today.
	if s.faker.Number(1, 3) == 1 {
		exp := s.now.AddDate(0, s.faker.Number(1, 12), 0)
		m.MembershipExpiresAt = &exp
	}
	return m
}

func (s *Seeder) seedForum(ctx context.Context, authors []*models.Member, sum *Summary) error {
	if len(authors) == 0 {
		return nil
	}
	// Keep forum activity within the last month so the hot listing is interesting.
	for _, category := range models.Categories {
		for i := 0; i < s.preset.ThreadsPerCategory; i++ {
			author := s.pick(authors)
			thread := &models.Thread{
				Title:       strings.TrimSuffix(s.faker.Sentence(s.faker.Number(4, 9)), "."),
				Content:     s.faker.Paragraph(2, 4, 12, "\n\n"),
				Category:    category,
				CreatedBy:   &author.ID,
				AuthorEmail: author.Email,
				CreatedAt:   s.pastTime(30),
			}
			if err := s.threads.Create(ctx, thread); err != nil {
				return fmt.Errorf("create thread: %w", err)
			}
			sum.Threads++

			n := s.faker.Number(0, s.preset.MaxCommentsPerThread)
			for c := 0; c < n; c++ {
				commenter := s.pick(authors)
				comment := &models.Comment{
					ThreadID:  thread.ID,
					Content:   s.faker.Sentence(s.faker.Number(6, 25)),
					CreatedBy: &commenter.ID,
					CreatedAt: s.between(thread.CreatedAt, s.now),
				}
				if err := s.comments.Create(ctx, comment); err != nil {
					return fmt.Errorf("create comment: %w", err)
				}
				sum.Comments++
			}
		}
	}
	return nil
}

func (s *Seeder) seedEvents(ctx context.Context, admins, attendees []*models.Member, sum *Summary) error {
	if len(admins) == 0 {
		return nil
	}
	create := func(startsAt time.Time) error {
		ends := startsAt.Add(time.Duration(s.faker.Number(1, 4)) * time.Hour)
		event := &models.Event{
			Title:       s.faker.Company() + " " + s.faker.RandomString([]string{"Meetup", "Workshop", "Panel", "Networking Night"}),
			Description: s.faker.Paragraph(1, 3, 10, "\n\n"),
			Location:    s.faker.City(),
			StartsAt:    startsAt,
			EndsAt:      &ends,
			Capacity:    s.faker.RandomInt([]int{0, 10, 25, 50}),
			CreatedBy:   s.pick(admins).ID,
		}
		if err := s.events.Create(ctx, event); err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		sum.Events++

		responses := []models.RSVPResponse{models.RSVPGoing, models.RSVPGoing, models.RSVPMaybe, models.RSVPNotGoing}
		for _, m := range attendees {
			if !s.faker.Bool() {
				continue
			}
			rsvp := &models.EventRSVP{EventID: event.ID, MemberID: m.ID, Response: responses[s.faker.Number(0, len(responses)-1)]}
			err := s.events.UpsertRSVP(ctx, rsvp)
			if errors.Is(err, repository.ErrEventFull) {
				continue
			}
			if err != nil {
				return fmt.Errorf("rsvp event %d: %w", event.ID, err)
			}
			sum.RSVPs++
		}
		return nil
	}

	day := 24 * time.Hour
	for i := 0; i < s.preset.UpcomingEvents; i++ {
		start := s.now.Add(time.Duration(s.faker.Number(3, 90)) * day).Truncate(time.Hour)
		if err := create(start); err != nil {
			return err
		}
	}
	for i := 0; i < s.preset.PastEvents; i++ {
		start := s.now.Add(-time.Duration(s.faker.Number(3, 180)) * day).Truncate(time.Hour)
		if err := create(start); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedResources(ctx context.Context, admins []*models.Member, sum *Summary) error {
	if len(admins) == 0 {
		return nil
	}
	for i := 0; i < s.preset.Resources; i++ {
		kind := models.ResourceKinds[i%len(models.ResourceKinds)]
		res := &models.Resource{
			Kind:        kind,
			Title:       strings.TrimSuffix(s.faker.Sentence(s.faker.Number(3, 7)), "."),
			Body:        s.faker.Paragraph(1, 2, 10, "\n\n"),
			Pinned:      i == 0,
			PublishedBy: s.pick(admins).ID,
		}
		if kind == models.ResourceLink {
			res.URL = s.faker.URL()
		}
		if err := s.resources.Create(ctx, res); err != nil {
			return fmt.Errorf("create resource: %w", err)
		}
		sum.Resources++
	}
	return nil
}

func (s *Seeder) pick(ms []*models.Member) *models.Member {
	return ms[s.faker.Number(0, len(ms)-1)]
}

// pastTime returns a moment within the last days days.
func (s *Seeder) pastTime(days int) time.Time {
	return s.between(s.now.AddDate(0, 0, -days), s.now)
}

func (s *Seeder) between(from, to time.Time) time.Time {
	if !to.After(from) {
		return from
	}
	return s.faker.DateRange(from, to).UTC()
}
