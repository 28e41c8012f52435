package services

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/app/repositories"
	"github.com/tradeyard/tradeyard/pkg/assets"
	"github.com/tradeyard/tradeyard/pkg/container"
	"github.com/tradeyard/tradeyard/pkg/crypt"
	"github.com/tradeyard/tradeyard/pkg/database"
	"github.com/tradeyard/tradeyard/pkg/errs"
	"github.com/tradeyard/tradeyard/pkg/rbac"
)

// fakeDisk is an in-memory storage.Disk with injectable delete failures.
type fakeDisk struct {
	objects    map[string][]byte
	failDelete map[string]bool
}

func newFakeDisk() *fakeDisk {
	return &fakeDisk{objects: map[string][]byte{}, failDelete: map[string]bool{}}
}

func (d *fakeDisk) Put(path string, content []byte, _ ...string) error {
	d.objects[path] = append([]byte(nil), content...)
	return nil
}

func (d *fakeDisk) PutStream(path string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return d.Put(path, b)
}

func (d *fakeDisk) Get(path string) ([]byte, error) {
	b, ok := d.objects[path]
	if !ok {
		return nil, fmt.Errorf("not found: %s", path)
	}
	return b, nil
}

func (d *fakeDisk) GetStream(path string) (io.ReadCloser, error) {
	b, err := d.Get(path)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (d *fakeDisk) Exists(path string) bool                 { _, ok := d.objects[path]; return ok }
func (d *fakeDisk) Missing(path string) bool                { return !d.Exists(path) }
func (d *fakeDisk) Size(path string) (int64, error)         { b, err := d.Get(path); return int64(len(b)), err }
func (d *fakeDisk) LastModified(string) (time.Time, error)  { return time.Time{}, nil }
func (d *fakeDisk) URL(path string) string                  { return "https://cdn.test/" + path }

func (d *fakeDisk) Delete(path string) error {
	if d.failDelete[path] {
		return fmt.Errorf("delete refused: %s", path)
	}
	delete(d.objects, path)
	return nil
}

func (d *fakeDisk) Copy(src, dst string) error {
	b, err := d.Get(src)
	if err != nil {
		return err
	}
	return d.Put(dst, b)
}

func (d *fakeDisk) Move(src, dst string) error {
	if err := d.Copy(src, dst); err != nil {
		return err
	}
	return d.Delete(src)
}

func (d *fakeDisk) Files(string) ([]string, error) { return nil, nil }

func (d *fakeDisk) AllFiles(string) ([]string, error) {
	var keys []string
	for k := range d.objects {
		keys = append(keys, k)
	}
	return keys, nil
}

func (d *fakeDisk) Directories(string) ([]string, error) { return nil, nil }
func (d *fakeDisk) MakeDirectory(string) error           { return nil }
func (d *fakeDisk) DeleteDirectory(string) error         { return nil }

// key strips the CDN base so a pair URL can be checked against the disk.
func (d *fakeDisk) key(url string) string { return strings.TrimPrefix(url, "https://cdn.test/") }

// ─── Fixtures ─────────────────────────────────────────────────────────────────

// setup points the shared connection at a fresh in-memory database and
// rebinds the asset manager to a throwaway disk.
func setup(t *testing.T) *fakeDisk {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.StoreRole{},
		&models.Store{},
		&models.Category{},
		&models.Product{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	database.DB = db

	disk := newFakeDisk()
	container.Reset()
	container.Singleton("assets.manager", func() interface{} {
		return assets.NewManager(disk)
	})
	return disk
}

// upload builds an in-memory multipart file header holding a small PNG.
func upload(t *testing.T, filename string) *multipart.FileHeader {
	t.Helper()

	var img bytes.Buffer
	canvas := imaging.New(64, 64, color.NRGBA{R: 40, G: 90, B: 200, A: 255})
	if err := imaging.Encode(&img, canvas, imaging.PNG); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("images", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(img.Bytes()); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	return form.File["images"][0]
}

func mkUser(t *testing.T, email string) models.User {
	t.Helper()
	user := models.User{Name: "Test User", Email: email, Password: "x", Role: string(rbac.RoleCustomer)}
	if err := repositories.NewUserRepository().Create(&user); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func mkStore(t *testing.T, owner models.User, name string) models.Store {
	t.Helper()
	store, err := NewStoreService().Create(owner.ID, CreateStoreInput{Name: name}, nil, nil)
	if err != nil {
		t.Fatalf("create store %s: %v", name, err)
	}
	return store
}

func asOwner(u models.User) rbac.Principal {
	return rbac.Principal{ID: u.ID, GlobalRole: rbac.RoleCustomer}
}

// ─── Stores ───────────────────────────────────────────────────────────────────

func TestStoreCreateDerivesSlugAndGrantsOwnerRole(t *testing.T) {
	setup(t)
	owner := mkUser(t, "owner@example.com")

	store, err := NewStoreService().Create(owner.ID, CreateStoreInput{Name: "Acme Shop & Co."}, nil, nil)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	if store.Slug != "acme-shop-co" {
		t.Errorf("slug = %q, want %q", store.Slug, "acme-shop-co")
	}
	if store.Settings.Currency == "" {
		t.Error("expected default settings to be applied")
	}

	staff, err := NewStaffService().List(store.ID)
	if err != nil {
		t.Fatalf("list staff: %v", err)
	}
	if len(staff) != 1 || staff[0].UserID != owner.ID || staff[0].Role != string(rbac.StoreAdmin) {
		t.Errorf("owner should hold store_admin, got %+v", staff)
	}
}

func TestStoreCreateRejectsNameCollisions(t *testing.T) {
	setup(t)
	owner := mkUser(t, "owner@example.com")
	svc := NewStoreService()
	mkStore(t, owner, "Acme Shop")

	// Different case, same name.
	_, err := svc.Create(owner.ID, CreateStoreInput{Name: "ACME shop"}, nil, nil)
	if !errs.IsConflict(err) {
		t.Errorf("case-insensitive duplicate should conflict, got %v", err)
	}

	// Different name collapsing to the same slug.
	_, err = svc.Create(owner.ID, CreateStoreInput{Name: "Acme, Shop!"}, nil, nil)
	if !errs.IsConflict(err) {
		t.Errorf("slug-colliding name should conflict, got %v", err)
	}

	// A name with no alphanumerics derives no slug at all.
	_, err = svc.Create(owner.ID, CreateStoreInput{Name: "!!!"}, nil, nil)
	if !errs.IsValidation(err) {
		t.Errorf("unsluggable name should fail validation, got %v", err)
	}
}

func TestStoreLifecycleRequiresOwnerOrGlobalAdmin(t *testing.T) {
	setup(t)
	owner := mkUser(t, "owner@example.com")
	staffer := mkUser(t, "staffer@example.com")
	store := mkStore(t, owner, "Acme Shop")
	svc := NewStoreService()

	// A store_admin who is not the owner cannot delete or deactivate.
	if _, err := NewStaffService().SetRole(store.ID, SetRoleInput{UserID: staffer.ID, Role: string(rbac.StoreAdmin)}); err != nil {
		t.Fatalf("grant role: %v", err)
	}
	notOwner := rbac.Principal{
		ID:         staffer.ID,
		GlobalRole: rbac.RoleCustomer,
		StoreRoles: map[string]rbac.StoreRole{store.ID: rbac.StoreAdmin},
	}
	if _, err := svc.Delete(notOwner, store); !errs.IsForbidden(err) {
		t.Errorf("non-owner delete should be forbidden, got %v", err)
	}
	if _, err := svc.SetActive(notOwner, store, false); !errs.IsForbidden(err) {
		t.Errorf("non-owner deactivate should be forbidden, got %v", err)
	}

	// A platform admin can.
	admin := rbac.Principal{ID: "admin-1", GlobalRole: rbac.RoleAdmin}
	updated, err := svc.SetActive(admin, store, false)
	if err != nil {
		t.Fatalf("admin deactivate: %v", err)
	}
	if updated.IsActive {
		t.Error("store should be inactive")
	}

	// And so can the owner.
	if _, err := svc.Delete(asOwner(owner), updated); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := svc.Get(store.ID); !errs.IsNotFound(err) {
		t.Errorf("store should be gone, got %v", err)
	}
}

func TestStoreDeleteReportsStrandedBranding(t *testing.T) {
	disk := setup(t)
	owner := mkUser(t, "owner@example.com")

	store, err := NewStoreService().Create(owner.ID, CreateStoreInput{Name: "Acme Shop"}, upload(t, "logo.png"), nil)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	if store.Logo.Empty() {
		t.Fatal("expected a stored logo pair")
	}

	disk.failDelete[disk.key(store.Logo.Original)] = true

	result, err := NewStoreService().Delete(asOwner(owner), store)
	if err != nil {
		t.Fatalf("delete store: %v", err)
	}
	if len(result.Failed) != 1 {
		t.Errorf("expected 1 stranded object, got %+v", result)
	}

	// The record is gone even though a blob survived.
	if _, err := NewStoreService().Get(store.ID); !errs.IsNotFound(err) {
		t.Errorf("store should be gone, got %v", err)
	}
}

// ─── Categories ───────────────────────────────────────────────────────────────

func TestCategoryParentRules(t *testing.T) {
	setup(t)
	owner := mkUser(t, "owner@example.com")
	store := mkStore(t, owner, "Acme Shop")
	other := mkStore(t, owner, "Beta Mart")
	svc := NewCategoryService()

	// A subcategory needs a parent.
	_, err := svc.Create(store.ID, CreateCategoryInput{Name: "Sneakers", IsSubcategory: true}, nil)
	if !errs.IsValidation(err) {
		t.Errorf("subcategory without parent should fail validation, got %v", err)
	}

	shoes, err := svc.Create(store.ID, CreateCategoryInput{Name: "Shoes"}, nil)
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}

	// The parent must live in the same store.
	_, err = svc.Create(other.ID, CreateCategoryInput{Name: "Sneakers", IsSubcategory: true, ParentCategoryID: &shoes.ID}, nil)
	if !errs.IsValidation(err) {
		t.Errorf("cross-store parent should fail validation, got %v", err)
	}

	// A top-level category cannot carry a parent.
	_, err = svc.Create(store.ID, CreateCategoryInput{Name: "Boots", ParentCategoryID: &shoes.ID}, nil)
	if !errs.IsValidation(err) {
		t.Errorf("parent on a top-level category should fail validation, got %v", err)
	}

	sneakers, err := svc.Create(store.ID, CreateCategoryInput{Name: "Sneakers", IsSubcategory: true, ParentCategoryID: &shoes.ID}, nil)
	if err != nil {
		t.Fatalf("create subcategory: %v", err)
	}

	// A subcategory cannot itself be a parent.
	_, err = svc.Create(store.ID, CreateCategoryInput{Name: "Running", IsSubcategory: true, ParentCategoryID: &sneakers.ID}, nil)
	if !errs.IsValidation(err) {
		t.Errorf("subcategory parent should fail validation, got %v", err)
	}

	// Nor its own parent.
	_, err = svc.Update(store.ID, sneakers.ID, UpdateCategoryInput{ParentCategoryID: &sneakers.ID}, nil)
	if !errs.IsValidation(err) {
		t.Errorf("self-parent should fail validation, got %v", err)
	}

	// Promoting a subcategory to top level clears its parent.
	topLevel := false
	promoted, err := svc.Update(store.ID, sneakers.ID, UpdateCategoryInput{IsSubcategory: &topLevel}, nil)
	if err != nil {
		t.Fatalf("promote subcategory: %v", err)
	}
	if promoted.IsSubcategory || promoted.ParentCategoryID != nil {
		t.Errorf("promoted category should have no parent, got %+v", promoted)
	}

	// Once top level, a supplied parent is rejected rather than ignored.
	_, err = svc.Update(store.ID, promoted.ID, UpdateCategoryInput{ParentCategoryID: &shoes.ID}, nil)
	if !errs.IsValidation(err) {
		t.Errorf("parent on a top-level category should fail validation, got %v", err)
	}
}

func TestCategoryImageReplaceDeletesOld(t *testing.T) {
	disk := setup(t)
	owner := mkUser(t, "owner@example.com")
	store := mkStore(t, owner, "Acme Shop")
	svc := NewCategoryService()

	cat, err := svc.Create(store.ID, CreateCategoryInput{Name: "Shoes"}, upload(t, "shoes-v1.png"))
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	oldKey := disk.key(cat.Image.Original)

	updated, err := svc.Update(store.ID, cat.ID, UpdateCategoryInput{}, upload(t, "shoes-v2.png"))
	if err != nil {
		t.Fatalf("update category: %v", err)
	}
	if updated.Image.Original == cat.Image.Original {
		t.Error("image should have been replaced")
	}
	if disk.Exists(oldKey) {
		t.Error("previous image should be deleted from the disk")
	}

	// A disk that refuses to delete the old image does not block the update.
	stubbornKey := disk.key(updated.Image.Original)
	disk.failDelete[stubbornKey] = true
	again, err := svc.Update(store.ID, cat.ID, UpdateCategoryInput{}, upload(t, "shoes-v3.png"))
	if err != nil {
		t.Fatalf("update with stubborn old image: %v", err)
	}
	if again.Image.Original == updated.Image.Original {
		t.Error("image should have been replaced despite the stranded blob")
	}
	if !disk.Exists(stubbornKey) {
		t.Error("the stranded blob should still be on the disk")
	}
}

// ─── Products ─────────────────────────────────────────────────────────────────

func TestProductCreateGeneratesStoreScopedSKU(t *testing.T) {
	setup(t)
	owner := mkUser(t, "owner@example.com")
	store := mkStore(t, owner, "Acme Shop")

	product, err := NewProductService().Create(store.ID, CreateProductInput{Name: "Boots", Price: 79.99}, nil)
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	wantPrefix := "SKU-" + strings.ToUpper(store.ID[len(store.ID)-4:]) + "-"
	if !strings.HasPrefix(product.SKU, wantPrefix) {
		t.Errorf("sku = %q, want prefix %q", product.SKU, wantPrefix)
	}
	if product.SKU != strings.ToUpper(product.SKU) {
		t.Errorf("sku %q should be upper-case", product.SKU)
	}
}

func TestProductCreateRejectsForeignCategories(t *testing.T) {
	setup(t)
	owner := mkUser(t, "owner@example.com")
	store := mkStore(t, owner, "Acme Shop")
	other := mkStore(t, owner, "Beta Mart")

	foreign, err := NewCategoryService().Create(other.ID, CreateCategoryInput{Name: "Shoes"}, nil)
	if err != nil {
		t.Fatalf("create foreign category: %v", err)
	}

	_, err = NewProductService().Create(store.ID, CreateProductInput{
		Name:        "Boots",
		Price:       10,
		CategoryIDs: []string{foreign.ID},
	}, nil)
	if !errs.IsValidation(err) {
		t.Fatalf("foreign category should fail validation, got %v", err)
	}
	if !strings.Contains(err.Error(), foreign.ID) {
		t.Errorf("error should name the offending id, got %q", err.Error())
	}
}

func TestProductColorsBindToUploadedFiles(t *testing.T) {
	disk := setup(t)
	owner := mkUser(t, "owner@example.com")
	store := mkStore(t, owner, "Acme Shop")
	svc := NewProductService()

	product, err := svc.Create(store.ID, CreateProductInput{
		Name:  "Boots",
		Price: 10,
		Colors: []ColorInput{
			{Name: "Red", ImageFilename: "red.png", Sizes: []models.ColorSize{{Name: "42", Quantity: 3}}},
		},
	}, []*multipart.FileHeader{upload(t, "red.png"), upload(t, "gallery.png")})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if len(product.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(product.Images))
	}
	if product.Colors[0].Image.Empty() {
		t.Error("colour should be bound to the uploaded file")
	}
	if product.Colors[0].Image.Original != product.Images[0].Original {
		t.Errorf("colour image = %q, want %q", product.Colors[0].Image.Original, product.Images[0].Original)
	}

	// A colour naming a file that was not uploaded fails, and the batch is
	// rolled back off the disk.
	before := len(disk.objects)
	_, err = svc.Create(store.ID, CreateProductInput{
		Name:   "Sandals",
		Price:  10,
		Colors: []ColorInput{{Name: "Blue", ImageFilename: "missing.png"}},
	}, []*multipart.FileHeader{upload(t, "blue.png")})
	if !errs.IsValidation(err) {
		t.Fatalf("unknown filename should fail validation, got %v", err)
	}
	if len(disk.objects) != before {
		t.Errorf("rolled-back batch should leave the disk unchanged: %d -> %d", before, len(disk.objects))
	}
}

func TestProductUpdateAppendsImagesAndReplacesColors(t *testing.T) {
	disk := setup(t)
	owner := mkUser(t, "owner@example.com")
	store := mkStore(t, owner, "Acme Shop")
	svc := NewProductService()

	product, err := svc.Create(store.ID, CreateProductInput{
		Name:   "Boots",
		Price:  10,
		Colors: []ColorInput{{Name: "Red", ImageFilename: "red.png"}},
	}, []*multipart.FileHeader{upload(t, "red.png")})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	redPair := product.Colors[0].Image

	newColors := []ColorInput{{Name: "Green", ImageFilename: "green.png"}}
	updated, err := svc.Update(store.ID, product.ID, UpdateProductInput{Colors: &newColors},
		[]*multipart.FileHeader{upload(t, "green.png")})
	if err != nil {
		t.Fatalf("update product: %v", err)
	}

	// Uploads append; the red image stays referenced as a gallery image.
	if len(updated.Images) != 2 {
		t.Errorf("expected 2 images after append, got %d", len(updated.Images))
	}
	if len(updated.Colors) != 1 || updated.Colors[0].Name != "Green" {
		t.Errorf("colours should be replaced, got %+v", updated.Colors)
	}
	// The red pair is still a top-level image, so it must survive.
	if !disk.Exists(disk.key(redPair.Original)) {
		t.Error("image still referenced by the gallery should not be deleted")
	}

	// Dropping a colour whose image is not in the gallery releases it.
	detached, err := svc.Get(store.ID, product.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	greenPair := detached.Colors[0].Image
	detached.Images = detached.Images[:1] // keep only the red gallery image
	if err := svc.Products.Update(&detached); err != nil {
		t.Fatalf("trim gallery: %v", err)
	}

	empty := []ColorInput{}
	if _, err := svc.Update(store.ID, product.ID, UpdateProductInput{Colors: &empty}, nil); err != nil {
		t.Fatalf("clear colours: %v", err)
	}
	if disk.Exists(disk.key(greenPair.Original)) {
		t.Error("unreferenced colour image should be deleted from the disk")
	}
}

func TestProductDeleteCollectsFailures(t *testing.T) {
	disk := setup(t)
	owner := mkUser(t, "owner@example.com")
	store := mkStore(t, owner, "Acme Shop")
	svc := NewProductService()

	product, err := svc.Create(store.ID, CreateProductInput{Name: "Boots", Price: 10},
		[]*multipart.FileHeader{upload(t, "a.png"), upload(t, "b.png")})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	disk.failDelete[disk.key(product.Images[0].Original)] = true

	result, err := svc.Delete(store.ID, product.ID)
	if err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if len(result.Failed) != 1 {
		t.Errorf("expected 1 stranded object, got %+v", result)
	}
	if len(result.Deleted) != 3 {
		t.Errorf("expected 3 deleted objects, got %+v", result)
	}
	if _, err := svc.Get(store.ID, product.ID); !errs.IsNotFound(err) {
		t.Errorf("product should be gone, got %v", err)
	}
}

func TestProductDetachImageByExactURL(t *testing.T) {
	disk := setup(t)
	owner := mkUser(t, "owner@example.com")
	store := mkStore(t, owner, "Acme Shop")
	svc := NewProductService()

	product, err := svc.Create(store.ID, CreateProductInput{Name: "Boots", Price: 10},
		[]*multipart.FileHeader{upload(t, "a.png"), upload(t, "b.png")})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	target := product.Images[0]

	if _, err := svc.DeleteImage(store.ID, product.ID, "https://cdn.test/products/nope.png"); !errs.IsNotFound(err) {
		t.Errorf("unknown url should be not found, got %v", err)
	}

	// A blob that refuses to die does not surface; the reference is gone.
	disk.failDelete[disk.key(target.Original)] = true
	updated, err := svc.DeleteImage(store.ID, product.ID, target.Original)
	if err != nil {
		t.Fatalf("detach image: %v", err)
	}
	if len(updated.Images) != 1 {
		t.Errorf("expected 1 image left, got %d", len(updated.Images))
	}
	if updated.Images[0].Original == target.Original {
		t.Error("detached image should not remain referenced")
	}
}

// ─── Staff ────────────────────────────────────────────────────────────────────

func TestStaffSetRoleValidates(t *testing.T) {
	setup(t)
	owner := mkUser(t, "owner@example.com")
	member := mkUser(t, "member@example.com")
	store := mkStore(t, owner, "Acme Shop")
	svc := NewStaffService()

	if _, err := svc.SetRole(store.ID, SetRoleInput{UserID: member.ID, Role: "janitor"}); !errs.IsValidation(err) {
		t.Errorf("unknown role should fail validation, got %v", err)
	}
	if _, err := svc.SetRole(store.ID, SetRoleInput{UserID: "ghost", Role: string(rbac.StoreStaff)}); !errs.IsNotFound(err) {
		t.Errorf("unknown user should be not found, got %v", err)
	}

	// Granting twice overwrites, never duplicates.
	if _, err := svc.SetRole(store.ID, SetRoleInput{UserID: member.ID, Role: string(rbac.StoreStaff)}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if _, err := svc.SetRole(store.ID, SetRoleInput{UserID: member.ID, Role: string(rbac.StoreManager)}); err != nil {
		t.Fatalf("regrant: %v", err)
	}
	staff, err := svc.List(store.ID)
	if err != nil {
		t.Fatalf("list staff: %v", err)
	}
	var memberRoles []string
	for _, s := range staff {
		if s.UserID == member.ID {
			memberRoles = append(memberRoles, s.Role)
		}
	}
	if len(memberRoles) != 1 || memberRoles[0] != string(rbac.StoreManager) {
		t.Errorf("expected single store_manager entry, got %v", memberRoles)
	}
}

func TestStaffInviteRoundTrip(t *testing.T) {
	setup(t)
	owner := mkUser(t, "owner@example.com")
	invitee := mkUser(t, "new-hire@example.com")
	outsider := mkUser(t, "outsider@example.com")
	store := mkStore(t, owner, "Acme Shop")
	svc := NewStaffService()

	token, err := svc.Invite(store.ID, InviteInput{Email: "new-hire@example.com", Role: string(rbac.StoreManager)})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token even though mail delivery cannot succeed here")
	}

	// Only the invited address can redeem.
	if _, err := svc.AcceptInvite(outsider.ID, token); !errs.IsForbidden(err) {
		t.Errorf("wrong email should be forbidden, got %v", err)
	}

	assignment, err := svc.AcceptInvite(invitee.ID, token)
	if err != nil {
		t.Fatalf("accept invite: %v", err)
	}
	if assignment.Role != string(rbac.StoreManager) || assignment.StoreID != store.ID {
		t.Errorf("unexpected assignment %+v", assignment)
	}

	// Garbage tokens fail closed.
	if _, err := svc.AcceptInvite(invitee.ID, "not-a-token"); !errs.IsValidation(err) {
		t.Errorf("garbage token should fail validation, got %v", err)
	}

	// Expired tokens fail closed.
	expired, err := crypt.EncryptJSON(staffInvite{
		StoreID:   store.ID,
		Email:     invitee.Email,
		Role:      string(rbac.StoreStaff),
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("seal expired invite: %v", err)
	}
	if _, err := svc.AcceptInvite(invitee.ID, expired); !errs.IsValidation(err) {
		t.Errorf("expired token should fail validation, got %v", err)
	}
}
