// scholarship-system/internal/batchimport/validator.go

package batchimport

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gorm.io/gorm"

	"github.com/anud18/scholarship-system-sub001/models"
)

// Directory is the live student-records API used to settle college-permission
// doubts. It is optional: when nil or unreachable, doubts stay warnings.
type Directory interface {
	GetStudentAttributes(ctx context.Context, studentNo string) (map[string]any, error)
}

// Pipeline bundles the batch-import stages around one database handle.
type Pipeline struct {
	DB       *gorm.DB
	Students Directory
}

func NewPipeline(db *gorm.DB, students Directory) *Pipeline {
	return &Pipeline{DB: db, Students: students}
}

// BulkValidate rebuilds the staged error and warning lists from the current
// rows. All lookups are batched by ID set; a file with hundreds of rows costs
// the same three queries as a file with one.
//
// Duplicate applications in the database are hard errors. College-permission
// doubts (unknown student, unmapped department, mismatched college) are
// warnings when only the local cache is available, and are upgraded to hard
// errors when the live student-records API confirms the mismatch.
func (p *Pipeline) BulkValidate(ctx context.Context, staged *models.StagedData, batch *models.BatchImport, importer *models.User) error {
	// Rows the parser rejected outright never entered Data, so their errors
	// cannot be recomputed here and must be carried forward verbatim.
	staged.Errors = carryParseErrors(staged)

	rows := make([]*models.StagedRow, 0, len(staged.Data))
	for i := range staged.Data {
		staged.Data[i].Warnings = nil
		if !staged.Data[i].Deleted {
			rows = append(rows, &staged.Data[i])
		}
	}
	if len(rows) == 0 {
		return nil
	}

	// In-file duplicates: recomputed here because preview edits can change
	// student identifiers after the initial parse.
	seen := make(map[string]int)
	valid := rows[:0]
	for _, row := range rows {
		if row.StudentNo == "" || row.StudentName == "" {
			staged.Errors = append(staged.Errors, models.RowError{
				Row:     row.RowNumber,
				Code:    ErrMissingRequired,
				Message: fmt.Sprintf("row %d: student identifier and name are required", row.RowNumber),
			})
			continue
		}
		if first, dup := seen[row.StudentNo]; dup {
			staged.Errors = append(staged.Errors, models.RowError{
				Row:     row.RowNumber,
				Code:    ErrDuplicateInFile,
				Message: fmt.Sprintf("row %d: student %s already appears at row %d", row.RowNumber, row.StudentNo, first),
			})
			continue
		}
		seen[row.StudentNo] = row.RowNumber
		valid = append(valid, row)
	}

	studentNos := make([]string, 0, len(seen))
	for no := range seen {
		studentNos = append(studentNos, no)
	}
	sort.Strings(studentNos)

	// One query per concern, never per row.
	users, err := p.usersByStudentNo(studentNos)
	if err != nil {
		return err
	}
	departments, err := p.departmentsFor(valid, users)
	if err != nil {
		return err
	}
	existing, err := p.activeApplicationsFor(users, batch)
	if err != nil {
		return err
	}

	bypass := importer != nil && importer.Role == models.RoleSuperAdmin
	for _, row := range valid {
		user, known := users[row.StudentNo]

		if known {
			if app, dup := existing[user.ID]; dup {
				staged.Errors = append(staged.Errors, models.RowError{
					Row:     row.RowNumber,
					Code:    ErrDuplicateApplication,
					Message: fmt.Sprintf("row %d: student %s already has application %s for this period", row.RowNumber, row.StudentNo, app.AppID),
				})
				continue
			}
		}

		if bypass {
			continue
		}
		p.checkCollege(ctx, staged, row, user, known, departments, batch.CollegeCode)
	}
	return nil
}

// carryParseErrors keeps the errors attributed to rows absent from Data.
// Preview edits can only touch staged rows, so these errors stay valid until
// the batch is cancelled or the file is re-uploaded.
func carryParseErrors(staged *models.StagedData) []models.RowError {
	present := make(map[int]bool, len(staged.Data))
	for i := range staged.Data {
		present[staged.Data[i].RowNumber] = true
	}
	var kept []models.RowError
	for _, e := range staged.Errors {
		if !present[e.Row] {
			kept = append(kept, e)
		}
	}
	return kept
}

// checkCollege applies the permission rule for one row: the student's current
// department must map to the importing college.
func (p *Pipeline) checkCollege(ctx context.Context, staged *models.StagedData, row *models.StagedRow, user models.User, known bool, departments map[string]models.Department, collegeCode string) {
	deptCode := row.DepartmentCode
	if deptCode == "" && known {
		deptCode = user.DepartmentCode
	}

	warn := ""
	switch {
	case !known && deptCode == "":
		warn = fmt.Sprintf("student %s is not in the local records; college membership could not be verified", row.StudentNo)
	case deptCode == "":
		warn = fmt.Sprintf("student %s has no department on record; college membership could not be verified", row.StudentNo)
	default:
		dept, ok := departments[deptCode]
		if !ok {
			warn = fmt.Sprintf("department %s is not mapped to a college; verify student %s manually", deptCode, row.StudentNo)
		} else if dept.AcademyCode != collegeCode {
			warn = fmt.Sprintf("student %s belongs to college %s, not %s", row.StudentNo, dept.AcademyCode, collegeCode)
		}
	}
	if warn == "" {
		return
	}

	// Cross-check against the live student-records API when we have one. A
	// confirmed mismatch becomes a hard error; an unreachable API leaves the
	// warning standing for later manual confirmation.
	if p.Students != nil {
		attrs, err := p.Students.GetStudentAttributes(ctx, row.StudentNo)
		if err == nil {
			if college, _ := attrs["college_code"].(string); college != "" {
				if college == collegeCode {
					return // resolved: the student does belong here
				}
				staged.Errors = append(staged.Errors, models.RowError{
					Row:     row.RowNumber,
					Code:    ErrCollegeMismatch,
					Message: fmt.Sprintf("row %d: student %s belongs to college %s, not %s (confirmed by student records)", row.RowNumber, row.StudentNo, college, collegeCode),
				})
				return
			}
		} else {
			slog.Warn("student records API unavailable during batch validation",
				"student_no", row.StudentNo, "error", err)
		}
	}

	row.Warnings = append(row.Warnings, warn)
}

func (p *Pipeline) usersByStudentNo(studentNos []string) (map[string]models.User, error) {
	var rows []models.User
	if err := p.DB.Where("student_no IN ?", studentNos).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]models.User, len(rows))
	for _, u := range rows {
		out[u.StudentNo] = u
	}
	return out, nil
}

func (p *Pipeline) departmentsFor(rows []*models.StagedRow, users map[string]models.User) (map[string]models.Department, error) {
	codeSet := make(map[string]bool)
	for _, row := range rows {
		if row.DepartmentCode != "" {
			codeSet[row.DepartmentCode] = true
		}
		if u, ok := users[row.StudentNo]; ok && u.DepartmentCode != "" {
			codeSet[u.DepartmentCode] = true
		}
	}
	if len(codeSet) == 0 {
		return map[string]models.Department{}, nil
	}
	codes := make([]string, 0, len(codeSet))
	for c := range codeSet {
		codes = append(codes, c)
	}

	var depts []models.Department
	if err := p.DB.Where("code IN ?", codes).Find(&depts).Error; err != nil {
		return nil, err
	}
	out := make(map[string]models.Department, len(depts))
	for _, d := range depts {
		out[d.Code] = d
	}
	return out, nil
}

func (p *Pipeline) activeApplicationsFor(users map[string]models.User, batch *models.BatchImport) (map[uint]models.Application, error) {
	if len(users) == 0 {
		return map[uint]models.Application{}, nil
	}
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	q := p.DB.Where("user_id IN ? AND scholarship_type_id = ? AND academic_year = ? AND status NOT IN ?",
		ids, batch.ScholarshipTypeID, batch.AcademicYear, models.InactiveStatuses)
	if batch.Semester == nil {
		q = q.Where("semester IS NULL")
	} else {
		q = q.Where("semester = ?", *batch.Semester)
	}

	var apps []models.Application
	if err := q.Find(&apps).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]models.Application, len(apps))
	for _, a := range apps {
		out[a.UserID] = a
	}
	return out, nil
}
