package students

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(db), mock
}

func TestAddStudent_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AddStudent(context.Background(), AddStudentRequest{Name: "Hana Sato"})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeInvalidArgument, api.Code)
}

func TestAddStudent_Success(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), "S-1001", "Hana Sato", nil, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	res, err := svc.AddStudent(context.Background(), AddStudentRequest{
		StudentNumber: "S-1001",
		Name:          "Hana Sato",
	})
	require.NoError(t, err)
	assert.Equal(t, "S-1001", res.StudentNumber)
	assert.NotEmpty(t, res.StudentULID)
	require.NoError(t, mock.ExpectationsWereMet())
}

// 学籍番号の重複は 409
func TestAddStudent_Duplicate(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), "S-1001", "Hana Sato", nil, nil, nil, sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := svc.AddStudent(context.Background(), AddStudentRequest{
		StudentNumber: "S-1001",
		Name:          "Hana Sato",
	})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeConflict, api.Code)
}

func TestGetStudent_NotFound(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT (.+) FROM students").
		WithArgs("S-9999").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.GetStudent(context.Background(), "S-9999")
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeNotFound, api.Code)
}
