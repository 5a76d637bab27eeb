// Package seed provides database seeding utilities for development and
// testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"bazaarhub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Seed populates the database with test data: users with profiles, posts,
// and organic-looking engagement (likes, shares, comments). Counter columns
// are written to match the generated rows exactly.
func Seed(db *gorm.DB, opts Options) error {
	gofakeit.Seed(time.Now().UnixNano())

	log.Printf("Seeding database with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	users, err := createUsers(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("created %d users", len(users))

	posts, err := createPosts(db, users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("created %d posts", len(posts))

	if err := createEngagement(db, users, posts); err != nil {
		return fmt.Errorf("failed to create engagement: %w", err)
	}
	log.Println("seeding completed")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE comments, shares, likes, posts, profile_images, profiles, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func createUsers(db *gorm.DB, n int) ([]*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		first := gofakeit.FirstName()
		last := gofakeit.LastName()
		email := fmt.Sprintf("%s.%s%d@%s",
			strings.ToLower(first), strings.ToLower(last), i, gofakeit.DomainName())
		mobile := gofakeit.Numerify("03#########")

		user := &models.User{
			Email:        email,
			Mobile:       &mobile,
			PasswordHash: string(hash),
			IsActive:     true,
			IsVendor:     rand.Intn(3) == 0,
			Gender:       gofakeit.Gender(),
		}
		if err := db.Create(user).Error; err != nil {
			return nil, err
		}

		profile := &models.Profile{
			UserID:  user.ID,
			Name:    first + " " + last,
			Country: gofakeit.Country(),
			City:    gofakeit.City(),
			Tagline: gofakeit.JobTitle(),
		}
		if user.IsVendor {
			profile.CompanyName = gofakeit.Company()
			profile.NTN = gofakeit.Numerify("#######")
		}
		if err := db.Create(profile).Error; err != nil {
			return nil, err
		}
		user.Profile = profile
		users = append(users, user)
	}
	return users, nil
}

func createPosts(db *gorm.DB, users []*models.User, n int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := users[rand.Intn(len(users))]
		post := &models.Post{
			UserID:     author.ID,
			Content:    gofakeit.Paragraph(1, 3, 8, "\n"),
			Visibility: models.VisibilityPublic,
			CreatedAt:  time.Now().Add(-time.Duration(rand.Intn(90*24)) * time.Hour),
		}
		if rand.Intn(2) == 0 {
			post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID())
		}
		if rand.Intn(10) == 0 {
			post.Visibility = models.VisibilityConnections
		}
		if err := db.Create(post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// createEngagement inserts likes, shares and comments keeping counters in
// exact agreement with the generated rows: the seeder must not introduce
// drift that cmd/reconcile would then report.
func createEngagement(db *gorm.DB, users []*models.User, posts []*models.Post) error {
	for _, post := range posts {
		likers := pickUsers(users, rand.Intn(len(users)/2+1))
		for _, u := range likers {
			like := &models.Like{
				UserID:    u.ID,
				PostID:    post.ID,
				CreatedAt: post.CreatedAt.Add(time.Duration(rand.Intn(3600)) * time.Second),
			}
			if err := db.Create(like).Error; err != nil {
				return err
			}
		}

		sharers := pickUsers(users, rand.Intn(4))
		shareCount := 0
		for _, u := range sharers {
			share := &models.Share{
				UserID:    u.ID,
				PostID:    post.ID,
				ShareType: models.ShareTypeInternal,
				DedupKey:  models.InternalShareDedupKey(u.ID, post.ID),
				CreatedAt: post.CreatedAt.Add(time.Duration(rand.Intn(7200)) * time.Second),
			}
			if err := db.Create(share).Error; err != nil {
				return err
			}
			shareCount++
		}

		commentCount := 0
		for _, u := range pickUsers(users, rand.Intn(5)) {
			comment := &models.Comment{
				UserID:  u.ID,
				PostID:  post.ID,
				Content: gofakeit.Sentence(10),
			}
			if err := db.Create(comment).Error; err != nil {
				return err
			}
			commentCount++
		}

		err := db.Model(&models.Post{}).Where("id = ?", post.ID).Updates(map[string]interface{}{
			"likes_count":    len(likers),
			"shares_count":   shareCount,
			"comments_count": commentCount,
		}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// pickUsers returns up to n distinct users.
func pickUsers(users []*models.User, n int) []*models.User {
	if n > len(users) {
		n = len(users)
	}
	perm := rand.Perm(len(users))
	picked := make([]*models.User, 0, n)
	for _, idx := range perm[:n] {
		picked = append(picked, users[idx])
	}
	return picked
}
