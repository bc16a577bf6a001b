package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table declarations are kept in one place and applied through ent's
// migration engine on Open. Column order matters: PrimaryKey and Indexes
// reference columns by slice position.

var (
	activityEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "student_id", Type: field.TypeString},
		{Name: "event_type", Type: field.TypeString},
		{Name: "payload", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
	}
	activityEventsTable = &schema.Table{
		Name:       "activity_events",
		Columns:    activityEventsColumns,
		PrimaryKey: []*schema.Column{activityEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "activityevent_student_id_sequence", Columns: []*schema.Column{activityEventsColumns[2], activityEventsColumns[1]}},
			{Name: "activityevent_event_type", Columns: []*schema.Column{activityEventsColumns[3]}},
		},
	}

	pathsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "student_id", Type: field.TypeString},
		{Name: "status", Type: field.TypeString},
		{Name: "metadata", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	pathsTable = &schema.Table{
		Name:       "paths",
		Columns:    pathsColumns,
		PrimaryKey: []*schema.Column{pathsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "path_student_id_status", Columns: []*schema.Column{pathsColumns[1], pathsColumns[2]}},
		},
	}

	pathEntriesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "path_id", Type: field.TypeString},
		{Name: "position", Type: field.TypeInt},
		{Name: "entry_type", Type: field.TypeString},
		{Name: "status", Type: field.TypeString},
		{Name: "module_id", Type: field.TypeString, Default: ""},
		{Name: "lesson_id", Type: field.TypeString, Default: ""},
		{Name: "assessment_id", Type: field.TypeString, Default: ""},
		{Name: "target_standard_codes", Type: field.TypeJSON},
		{Name: "metadata", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	pathEntriesTable = &schema.Table{
		Name:       "path_entries",
		Columns:    pathEntriesColumns,
		PrimaryKey: []*schema.Column{pathEntriesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "pathentry_path_id_position", Columns: []*schema.Column{pathEntriesColumns[1], pathEntriesColumns[2]}},
		},
	}

	modulesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
		{Name: "strand", Type: field.TypeString, Default: ""},
		{Name: "grade_levels", Type: field.TypeJSON},
		{Name: "standard_codes", Type: field.TypeJSON},
		{Name: "lesson_ids", Type: field.TypeJSON},
		{Name: "sort_order", Type: field.TypeInt, Default: 0},
	}
	modulesTable = &schema.Table{
		Name:       "modules",
		Columns:    modulesColumns,
		PrimaryKey: []*schema.Column{modulesColumns[0]},
	}

	canonicalSequencesColumns = []*schema.Column{
		{Name: "grade_band", Type: field.TypeString},
		{Name: "position", Type: field.TypeInt},
		{Name: "module_id", Type: field.TypeString},
	}
	canonicalSequencesTable = &schema.Table{
		Name:       "canonical_sequences",
		Columns:    canonicalSequencesColumns,
		PrimaryKey: []*schema.Column{canonicalSequencesColumns[0], canonicalSequencesColumns[1]},
	}

	placementQuestionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "assessment_id", Type: field.TypeString},
		{Name: "bank_question_id", Type: field.TypeString},
		{Name: "prompt", Type: field.TypeString, Default: ""},
		{Name: "options", Type: field.TypeJSON},
		{Name: "weight", Type: field.TypeFloat64, Default: 1.0},
		{Name: "difficulty", Type: field.TypeInt, Default: 0},
		{Name: "strand", Type: field.TypeString, Default: ""},
		{Name: "target_standards", Type: field.TypeJSON},
		{Name: "position", Type: field.TypeInt, Default: 0},
	}
	placementQuestionsTable = &schema.Table{
		Name:       "placement_questions",
		Columns:    placementQuestionsColumns,
		PrimaryKey: []*schema.Column{placementQuestionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "placementquestion_assessment_id", Columns: []*schema.Column{placementQuestionsColumns[1]}},
		},
	}

	placementAttemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "assessment_id", Type: field.TypeString},
		{Name: "student_id", Type: field.TypeString},
		{Name: "responses", Type: field.TypeJSON},
		{Name: "mastery_pct", Type: field.TypeInt},
		{Name: "strand_estimates", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
	}
	placementAttemptsTable = &schema.Table{
		Name:       "placement_attempts",
		Columns:    placementAttemptsColumns,
		PrimaryKey: []*schema.Column{placementAttemptsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "placementattempt_student_id", Columns: []*schema.Column{placementAttemptsColumns[2]}},
		},
	}

	settingsColumns = []*schema.Column{
		{Name: "key", Type: field.TypeString},
		{Name: "value", Type: field.TypeString},
		{Name: "updated_at", Type: field.TypeTime},
	}
	settingsTable = &schema.Table{
		Name:       "settings",
		Columns:    settingsColumns,
		PrimaryKey: []*schema.Column{settingsColumns[0]},
	}

	// tables lists every table created by auto-migration.
	tables = []*schema.Table{
		activityEventsTable,
		pathsTable,
		pathEntriesTable,
		modulesTable,
		canonicalSequencesTable,
		placementQuestionsTable,
		placementAttemptsTable,
		settingsTable,
	}
)
