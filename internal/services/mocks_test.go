package services

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/careersfromhere/testimonial-service/internal/models"
	"github.com/careersfromhere/testimonial-service/internal/repositories"
)

// fakeRepo is an in-memory repositories.Repository for service tests.
type fakeRepo struct {
	users      map[uint]*models.User
	schools    map[uint]*models.School
	questions  map[uint]*models.Question
	videos     map[uint]*models.Video
	clips      map[uint]*models.VideoClip
	categories map[uint]*models.Category
	nextID     uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:      make(map[uint]*models.User),
		schools:    make(map[uint]*models.School),
		questions:  make(map[uint]*models.Question),
		videos:     make(map[uint]*models.Video),
		clips:      make(map[uint]*models.VideoClip),
		categories: make(map[uint]*models.Category),
	}
}

func (f *fakeRepo) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) addSchool(name string) *models.School {
	s := &models.School{ID: f.id(), Name: name}
	f.schools[s.ID] = s
	return s
}

func (f *fakeRepo) addUser(role models.UserRole, schoolID uint, approved bool) *models.User {
	u := &models.User{ID: f.id(), Role: role, SchoolID: schoolID, Approved: approved}
	u.Name = "User"
	f.users[u.ID] = u
	return u
}

func (f *fakeRepo) addQuestion(schoolID uint, text string, ordering int) *models.Question {
	q := &models.Question{ID: f.id(), Text: text, Duration: 30, Active: true, Ordering: ordering, SchoolID: schoolID}
	f.questions[q.ID] = q
	return q
}

func (f *fakeRepo) addCategory(name string) *models.Category {
	c := &models.Category{ID: f.id(), Name: name}
	f.categories[c.ID] = c
	return c
}

func (f *fakeRepo) addVideo(owner *models.User, approved bool, categories ...*models.Category) *models.Video {
	v := &models.Video{ID: f.id(), Title: "Testimonial", UserID: owner.ID, Approved: approved, User: *owner}
	for _, c := range categories {
		v.Categories = append(v.Categories, *c)
	}
	f.videos[v.ID] = v
	return v
}

func (f *fakeRepo) addClip(videoID, questionID uint, videoPath string) *models.VideoClip {
	c := &models.VideoClip{ID: f.id(), VideoID: videoID, QuestionID: questionID, VideoPath: videoPath}
	f.clips[c.ID] = c
	if v, ok := f.videos[videoID]; ok {
		v.Clips = append(v.Clips, *c)
	}
	return c
}

func (f *fakeRepo) School() repositories.SchoolRepository     { return &fakeSchoolRepo{f} }
func (f *fakeRepo) User() repositories.UserRepository         { return &fakeUserRepo{f} }
func (f *fakeRepo) Question() repositories.QuestionRepository { return &fakeQuestionRepo{f} }
func (f *fakeRepo) Video() repositories.VideoRepository       { return &fakeVideoRepo{f} }
func (f *fakeRepo) Category() repositories.CategoryRepository { return &fakeCategoryRepo{f} }

func (f *fakeRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

func (f *fakeRepo) Ping(ctx context.Context) error { return nil }
func (f *fakeRepo) Close() error                   { return nil }

// ===== SCHOOL =====

type fakeSchoolRepo struct{ f *fakeRepo }

func (r *fakeSchoolRepo) Create(ctx context.Context, tx *gorm.DB, school *models.School) error {
	school.ID = r.f.id()
	r.f.schools[school.ID] = school
	return nil
}

func (r *fakeSchoolRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.School, error) {
	if s, ok := r.f.schools[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSchoolRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*models.School, error) {
	for _, s := range r.f.schools {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSchoolRepo) Update(ctx context.Context, tx *gorm.DB, school *models.School) error {
	r.f.schools[school.ID] = school
	return nil
}

func (r *fakeSchoolRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	for uid, u := range r.f.users {
		if u.SchoolID != id {
			continue
		}
		for vid, v := range r.f.videos {
			if v.UserID != uid {
				continue
			}
			for cid, c := range r.f.clips {
				if c.VideoID == vid {
					delete(r.f.clips, cid)
				}
			}
			delete(r.f.videos, vid)
		}
		delete(r.f.users, uid)
	}
	for qid, q := range r.f.questions {
		if q.SchoolID == id {
			delete(r.f.questions, qid)
		}
	}
	delete(r.f.schools, id)
	return nil
}

func (r *fakeSchoolRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.SchoolFilters) ([]*models.School, int64, error) {
	var out []*models.School
	for _, s := range r.f.schools {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeSchoolRepo) ExistsByName(ctx context.Context, tx *gorm.DB, name string, excludeID *uint) (bool, error) {
	for _, s := range r.f.schools {
		if excludeID != nil && s.ID == *excludeID {
			continue
		}
		if s.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSchoolRepo) GetSchoolStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.SchoolStats, error) {
	if _, ok := r.f.schools[id]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &repositories.SchoolStats{}, nil
}

// ===== USER =====

type fakeUserRepo struct{ f *fakeRepo }

func (r *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	user.ID = r.f.id()
	r.f.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	if u, ok := r.f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	for _, u := range r.f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	r.f.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(r.f.users, id)
	return nil
}

func (r *fakeUserRepo) CreateBatch(ctx context.Context, tx *gorm.DB, users []*models.User) error {
	for _, u := range users {
		u.ID = r.f.id()
		r.f.users[u.ID] = u
	}
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var out []*models.User
	for _, u := range r.f.users {
		if filters.SchoolID != nil && u.SchoolID != *filters.SchoolID {
			continue
		}
		if filters.Role != nil && u.Role != *filters.Role {
			continue
		}
		if filters.Approved != nil && u.Approved != *filters.Approved {
			continue
		}
		if filters.ExcludeSuperAdm && u.Role == models.RoleSuperAdmin {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) GetBySchool(ctx context.Context, tx *gorm.DB, schoolID uint, filters repositories.UserFilters) ([]*models.User, int64, error) {
	filters.SchoolID = &schoolID
	return r.List(ctx, tx, filters)
}

func (r *fakeUserRepo) GetUnapproved(ctx context.Context, tx *gorm.DB, schoolID *uint) ([]*models.User, error) {
	var out []*models.User
	for _, u := range r.f.users {
		if u.Approved {
			continue
		}
		if schoolID != nil && u.SchoolID != *schoolID {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string, excludeID *uint) (bool, error) {
	for _, u := range r.f.users {
		if excludeID != nil && u.ID == *excludeID {
			continue
		}
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// ===== QUESTION =====

type fakeQuestionRepo struct{ f *fakeRepo }

func (r *fakeQuestionRepo) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	question.ID = r.f.id()
	r.f.questions[question.ID] = question
	return nil
}

func (r *fakeQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	if q, ok := r.f.questions[id]; ok {
		return q, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeQuestionRepo) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	r.f.questions[question.ID] = question
	return nil
}

func (r *fakeQuestionRepo) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	for _, q := range questions {
		q.ID = r.f.id()
		r.f.questions[q.ID] = q
	}
	return nil
}

func (r *fakeQuestionRepo) UpdateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	for _, q := range questions {
		r.f.questions[q.ID] = q
	}
	return nil
}

func (r *fakeQuestionRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	var out []*models.Question
	for _, q := range r.f.questions {
		if filters.SchoolID != nil && q.SchoolID != *filters.SchoolID {
			continue
		}
		if filters.Active != nil && q.Active != *filters.Active {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeQuestionRepo) GetActiveBySchool(ctx context.Context, tx *gorm.DB, schoolID uint) ([]*models.Question, error) {
	var out []*models.Question
	for _, q := range r.f.questions {
		if q.SchoolID == schoolID && q.Active {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordering < out[j].Ordering })
	return out, nil
}

func (r *fakeQuestionRepo) GetActiveBySchoolForUpdate(ctx context.Context, tx *gorm.DB, schoolID uint) ([]*models.Question, error) {
	return r.GetActiveBySchool(ctx, tx, schoolID)
}

func (r *fakeQuestionRepo) GetMaxOrdering(ctx context.Context, tx *gorm.DB, schoolID uint) (int, error) {
	max := 0
	for _, q := range r.f.questions {
		if q.SchoolID == schoolID && q.Active && q.Ordering > max {
			max = q.Ordering
		}
	}
	return max, nil
}

func (r *fakeQuestionRepo) IsAnswered(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	for _, c := range r.f.clips {
		if c.QuestionID == id {
			return true, nil
		}
	}
	return false, nil
}

// ===== VIDEO =====

type fakeVideoRepo struct{ f *fakeRepo }

func (r *fakeVideoRepo) Create(ctx context.Context, tx *gorm.DB, video *models.Video) error {
	video.ID = r.f.id()
	if owner, ok := r.f.users[video.UserID]; ok {
		video.User = *owner
	}
	r.f.videos[video.ID] = video
	return nil
}

func (r *fakeVideoRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Video, error) {
	if v, ok := r.f.videos[id]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeVideoRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Video, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *fakeVideoRepo) Update(ctx context.Context, tx *gorm.DB, video *models.Video) error {
	r.f.videos[video.ID] = video
	return nil
}

func (r *fakeVideoRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(r.f.videos, id)
	return nil
}

func (r *fakeVideoRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.VideoFilters) ([]*models.Video, int64, error) {
	var out []*models.Video
	for _, v := range r.f.videos {
		if filters.SchoolID != nil && v.User.SchoolID != *filters.SchoolID {
			continue
		}
		if filters.Approved != nil && v.Approved != *filters.Approved {
			continue
		}
		if filters.Public != nil && v.PublicAccess != *filters.Public {
			continue
		}
		if filters.UserID != nil && v.UserID != *filters.UserID {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeVideoRepo) GetBySchool(ctx context.Context, tx *gorm.DB, schoolID uint, filters repositories.VideoFilters) ([]*models.Video, int64, error) {
	filters.SchoolID = &schoolID
	return r.List(ctx, tx, filters)
}

func (r *fakeVideoRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.Video, error) {
	out, _, err := r.List(ctx, tx, repositories.VideoFilters{UserID: &userID})
	return out, err
}

func (r *fakeVideoRepo) GetUnapproved(ctx context.Context, tx *gorm.DB, schoolID *uint) ([]*models.Video, error) {
	var out []*models.Video
	for _, v := range r.f.videos {
		if v.Approved {
			continue
		}
		if schoolID != nil && v.User.SchoolID != *schoolID {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeVideoRepo) ReplaceCategories(ctx context.Context, tx *gorm.DB, videoID uint, categoryIDs []uint) error {
	v, ok := r.f.videos[videoID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.Categories = nil
	for _, id := range categoryIDs {
		if c, ok := r.f.categories[id]; ok {
			v.Categories = append(v.Categories, *c)
		}
	}
	return nil
}

func (r *fakeVideoRepo) CreateClip(ctx context.Context, tx *gorm.DB, clip *models.VideoClip) error {
	clip.ID = r.f.id()
	r.f.clips[clip.ID] = clip
	if v, ok := r.f.videos[clip.VideoID]; ok {
		v.Clips = append(v.Clips, *clip)
	}
	return nil
}

func (r *fakeVideoRepo) GetClipByID(ctx context.Context, tx *gorm.DB, id uint) (*models.VideoClip, error) {
	if c, ok := r.f.clips[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeVideoRepo) GetClipsByVideo(ctx context.Context, tx *gorm.DB, videoID uint) ([]*models.VideoClip, error) {
	var out []*models.VideoClip
	for _, c := range r.f.clips {
		if c.VideoID == videoID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeVideoRepo) UpdateClip(ctx context.Context, tx *gorm.DB, clip *models.VideoClip) error {
	r.f.clips[clip.ID] = clip
	return nil
}

// ===== CATEGORY =====

type fakeCategoryRepo struct{ f *fakeRepo }

func (r *fakeCategoryRepo) Create(ctx context.Context, tx *gorm.DB, category *models.Category) error {
	category.ID = r.f.id()
	r.f.categories[category.ID] = category
	return nil
}

func (r *fakeCategoryRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Category, error) {
	if c, ok := r.f.categories[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCategoryRepo) Update(ctx context.Context, tx *gorm.DB, category *models.Category) error {
	r.f.categories[category.ID] = category
	return nil
}

func (r *fakeCategoryRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(r.f.categories, id)
	return nil
}

func (r *fakeCategoryRepo) List(ctx context.Context, tx *gorm.DB) ([]*models.Category, error) {
	var out []*models.Category
	for _, c := range r.f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCategoryRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Category, error) {
	var out []*models.Category
	for _, id := range ids {
		if c, ok := r.f.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCategoryRepo) ExistsByName(ctx context.Context, tx *gorm.DB, name string, excludeID *uint) (bool, error) {
	for _, c := range r.f.categories {
		if excludeID != nil && c.ID == *excludeID {
			continue
		}
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}
