package acceptance

func (s *Suite) TestHealthSuite() {
	s.runSuite("health")
}

func (s *Suite) TestTasksCRUDSuite() {
	s.runSuite("tasks-crud")
}

func (s *Suite) TestFilteringSuite() {
	s.runSuite("filtering")
}

func (s *Suite) TestSearchSuite() {
	s.runSuite("search")
}

func (s *Suite) TestStatsSuite() {
	s.runSuite("stats")
}

func (s *Suite) TestBulkImportSuite() {
	s.runSuite("bulk-import")
}

func (s *Suite) TestExportSuite() {
	s.runSuite("export")
}

func (s *Suite) TestStatusTransitionsSuite() {
	s.runSuite("status-transitions")
}

func (s *Suite) TestArchiveSuite() {
	s.runSuite("archive")
}

func (s *Suite) TestDueDatesSuite() {
	s.runSuite("due-dates")
}

func (s *Suite) TestLabelsSuite() {
	s.runSuite("labels")
}

func (s *Suite) TestCommentsSuite() {
	s.runSuite("comments")
}

func (s *Suite) TestRequestIDSuite() {
	s.runSuite("request-id")
}

func (s *Suite) TestCORSSuite() {
	s.runSuite("cors")
}

func (s *Suite) TestAuthSuite() {
	s.runSuite("auth")
}

func (s *Suite) TestAuthValidationSuite() {
	s.runSuite("auth-validation")
}

func (s *Suite) TestLoginRateLimitSuite() {
	s.runSuite("login-rate-limit")
}

func (s *Suite) TestSessionSuite() {
	s.runSuite("session")
}
