package main

import (
	"context"
	"log"
	"math/rand"
	"strings"

	"github.com/jaswdr/faker"

	"bboard/pkg/board"
	. "bboard/pkg/common"
	"bboard/pkg/post"
	"bboard/pkg/user"
)

var (
	f             = faker.New()
	onePassForAll = HashPass("sdfsdfsdf", RandStringRunes(8)) // salt must have len of 8
)

type IUserRepo interface {
	Add(*user.User) (int64, error)
	GetAll() ([]*user.User, error)
}

func createAuthors(userRepo IUserRepo) {
	// User for experiments (not random)
	_, err := userRepo.Add(&user.User{
		Username:    "pike",
		DisplayName: "Rob",
		Password:    onePassForAll,
	})
	if err != nil {
		log.Fatalln("seed: can't create default user:", err)
	}
	for i := 1; i <= 5; i++ {
		genUser(userRepo)
	}
}

func seed(userRepo IUserRepo, postRepo *post.Repo) {
	authors, err := userRepo.GetAll()
	if err != nil {
		log.Fatalln("seed: can't get all authors:", err)
	}

	if len(authors) == 0 {
		createAuthors(userRepo)
		authors, err = userRepo.GetAll()
		if err != nil {
			log.Fatalln("seed: can't get all authors:", err)
		}
	}

	// Enough posts on the free board to exercise pagination
	for i := 0; i < 25; i++ {
		genPost(postRepo, authors, board.TypeFree)
	}
	for i := 0; i < 5; i++ {
		genPost(postRepo, authors, board.TypeNotice)
	}
}

func genUser(userRepo IUserRepo) {
	person := f.Person()
	u := user.User{
		Username:    strings.ToLower(person.FirstName()),
		DisplayName: person.Name(),
		Password:    onePassForAll,
	}
	_, err := userRepo.Add(&u)
	if err != nil {
		log.Fatalln("seed: can't add user:", err)
	}
}

func genTitle() string {
	return strings.Join(f.Lorem().Words(rand.Intn(5)+3), " ")
}

func genText() string {
	return f.Lorem().Paragraph(rand.Intn(3) + 2)
}

func genPost(postRepo *post.Repo, authors []*user.User, boardType string) {
	author := authors[rand.Intn(len(authors))]
	_, err := postRepo.Add(context.Background(), boardType, author.Id, genTitle(), genText())
	if err != nil {
		log.Fatalln("seed: can't add post:", err)
	}
}
