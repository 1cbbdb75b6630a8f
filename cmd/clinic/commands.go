package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/clinic/exams/internal/domain/exam"
	"github.com/clinic/exams/internal/domain/patient"
	"github.com/clinic/exams/internal/domain/scheduling"
	"github.com/clinic/exams/internal/platform/apperr"
)

func patientsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "patients", Short: "Manage patients"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List patients by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				items, err := a.patients.ListPatients(ctx)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "CPF", "BIRTH DATE", "PHONE", "COMPANY")
				for _, p := range items {
					tw.row(p.ID, p.Name, p.CPF, p.BirthDate, p.Phone, p.CompanyName)
				}
				return tw.flush()
			})
		},
	})

	add := &cobra.Command{
		Use:   "add",
		Short: "Register a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := patientFromFlags(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.patients.CreatePatient(ctx, p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Patient %s created.\n", p.ID)
				return nil
			})
		},
	}
	add.Flags().String("name", "", "Full name")
	add.Flags().String("cpf", "", "National ID")
	add.Flags().String("birth-date", "", "Birth date (YYYY-MM-DD)")
	add.Flags().String("address", "", "Address")
	add.Flags().String("phone", "", "Phone")
	add.Flags().String("company", "", "Employer company id")
	cmd.AddCommand(add)
	return cmd
}

func patientFromFlags(cmd *cobra.Command) (*patient.Patient, error) {
	f := cmd.Flags()
	name, _ := f.GetString("name")
	cpf, _ := f.GetString("cpf")
	birth, _ := f.GetString("birth-date")

	p := &patient.Patient{
		Name:    name,
		CPF:     cpf,
		Address: optString(cmd, "address"),
		Phone:   optString(cmd, "phone"),
	}
	if birth != "" {
		d, err := patient.NewBirthDate(birth)
		if err != nil {
			return nil, apperr.Validation("invalid birth-date %q, want YYYY-MM-DD", birth)
		}
		p.BirthDate = d
	}
	companyID, err := optUUID(cmd, "company")
	if err != nil {
		return nil, err
	}
	p.CompanyID = companyID
	return p, nil
}

func examsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "exams", Short: "Manage the exam catalogue"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List exams by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				items, err := a.exams.ListExams(ctx)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "TYPE", "MINUTES", "CLEANING", "REQUIREMENTS")
				for _, e := range items {
					tw.row(e.ID, e.Name, string(e.Type()), e.EstimatedMinutes, e.CleaningIntervalMinutes, e.Requirements)
				}
				return tw.flush()
			})
		},
	})

	add := &cobra.Command{
		Use:   "add",
		Short: "Add an exam",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := examFromFlags(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.exams.CreateExam(ctx, e); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exam %s created.\n", e.ID)
				return nil
			})
		},
	}
	add.Flags().String("name", "", "Exam name")
	add.Flags().String("type", "", "LAB, IMAGING or CLINICAL")
	add.Flags().Int("duration", 0, "Estimated duration in minutes")
	add.Flags().String("description", "", "Description")
	add.Flags().String("requirements", "", "Preparation requirements")
	add.Flags().Int("cleaning-interval", exam.DefaultCleaningInterval, "Cleaning interval in minutes")
	add.Flags().Int("collection-minutes", 0, "LAB: collection time in minutes")
	add.Flags().String("dietary-restrictions", "", "LAB: dietary restrictions")
	add.Flags().String("technology", "", "IMAGING: equipment technology")
	add.Flags().String("special-prep", "", "IMAGING: special preparation")
	add.Flags().Int("avg-consult-minutes", 0, "CLINICAL: average consultation minutes")
	add.Flags().String("specialty", "", "CLINICAL: specialty")
	cmd.AddCommand(add)
	return cmd
}

func examFromFlags(cmd *cobra.Command) (*exam.Exam, error) {
	f := cmd.Flags()
	name, _ := f.GetString("name")
	duration, _ := f.GetInt("duration")

	details, err := examDetails(cmd)
	if err != nil {
		return nil, err
	}
	return &exam.Exam{
		Name:                    name,
		Description:             optString(cmd, "description"),
		Requirements:            optString(cmd, "requirements"),
		EstimatedMinutes:        duration,
		CleaningIntervalMinutes: optInt(cmd, "cleaning-interval"),
		Details:                 details,
	}, nil
}

func examDetails(cmd *cobra.Command) (exam.Details, error) {
	raw, _ := cmd.Flags().GetString("type")
	switch t := exam.Type(strings.ToUpper(raw)); t {
	case exam.TypeLab:
		return exam.LabDetails{
			CollectionMinutes:   optInt(cmd, "collection-minutes"),
			DietaryRestrictions: optString(cmd, "dietary-restrictions"),
		}, nil
	case exam.TypeImaging:
		return exam.ImagingDetails{
			Technology:  optString(cmd, "technology"),
			SpecialPrep: optString(cmd, "special-prep"),
		}, nil
	case exam.TypeClinical:
		return exam.ClinicalDetails{
			AvgConsultMinutes: optInt(cmd, "avg-consult-minutes"),
			Specialty:         optString(cmd, "specialty"),
		}, nil
	}
	return nil, apperr.Validation("invalid exam type %q (LAB, IMAGING or CLINICAL)", raw)
}

func appointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "appointments", Short: "Schedule and track appointments"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List appointments by time",
		RunE: func(cmd *cobra.Command, args []string) error {
			fromStr, _ := cmd.Flags().GetString("from")
			toStr, _ := cmd.Flags().GetString("to")
			if (fromStr == "") != (toStr == "") {
				return apperr.Validation("--from and --to must be given together")
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				var (
					items []*scheduling.Appointment
					err   error
				)
				if fromStr == "" {
					items, err = a.sched.ListAppointments(ctx)
				} else {
					var from, to time.Time
					if from, err = parseDate("from", fromStr); err != nil {
						return err
					}
					if to, err = parseDate("to", toStr); err != nil {
						return err
					}
					items, err = a.sched.ListAppointmentsBetween(ctx, from, to)
				}
				if err != nil {
					return err
				}
				return printAppointments(cmd.OutOrStdout(), items)
			})
		},
	}
	list.Flags().String("from", "", "First date (YYYY-MM-DD)")
	list.Flags().String("to", "", "Last date (YYYY-MM-DD)")
	cmd.AddCommand(list)

	schedule := &cobra.Command{
		Use:   "schedule",
		Short: "Book an exam for a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			appt, err := appointmentFromFlags(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.sched.ScheduleAppointment(ctx, appt); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Appointment %s scheduled for %s.\n", appt.ID, cell(appt.ScheduledAt))
				return nil
			})
		},
	}
	schedule.Flags().String("patient", "", "Patient id")
	schedule.Flags().String("exam", "", "Exam id")
	schedule.Flags().String("unit", "", "Unit id")
	schedule.Flags().String("professional", "", "Professional id")
	schedule.Flags().String("at", "", "Date and time (YYYY-MM-DD HH:MM)")
	cmd.AddCommand(schedule)

	status := &cobra.Command{
		Use:   "status <id>",
		Short: "Change an appointment's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUUID("appointment id", args[0])
			if err != nil {
				return err
			}
			raw, _ := cmd.Flags().GetString("status")
			change := scheduling.StatusChange{
				Status:         scheduling.Status(strings.ToUpper(raw)),
				DocumentsOK:    optBool(cmd, "documents-ok"),
				RequirementsOK: optBool(cmd, "requirements-ok"),
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				appt, err := a.sched.UpdateStatus(ctx, id, change)
				if err != nil {
					return err
				}
				return printAppointments(cmd.OutOrStdout(), []*scheduling.Appointment{appt})
			})
		},
	}
	status.Flags().String("status", "", "SCHEDULED, COMPLETED or CANCELLED")
	status.Flags().Bool("documents-ok", false, "Documents were checked")
	status.Flags().Bool("requirements-ok", false, "Requirements were met")
	cmd.AddCommand(status)

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUUID("appointment id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				appt, err := a.sched.Cancel(ctx, id)
				if err != nil {
					return err
				}
				return printAppointments(cmd.OutOrStdout(), []*scheduling.Appointment{appt})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pending-results",
		Short: "List completed appointments that have no result yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				items, err := a.sched.ListCompletedWithoutResult(ctx)
				if err != nil {
					return err
				}
				return printAppointments(cmd.OutOrStdout(), items)
			})
		},
	})
	return cmd
}

func appointmentFromFlags(cmd *cobra.Command) (*scheduling.Appointment, error) {
	patientID, err := uuidFlag(cmd, "patient")
	if err != nil {
		return nil, err
	}
	examID, err := uuidFlag(cmd, "exam")
	if err != nil {
		return nil, err
	}
	unitID, err := uuidFlag(cmd, "unit")
	if err != nil {
		return nil, err
	}
	professionalID, err := optUUID(cmd, "professional")
	if err != nil {
		return nil, err
	}
	at, _ := cmd.Flags().GetString("at")
	if at == "" {
		return nil, apperr.Validation("--at is required")
	}
	scheduledAt, err := parseDateTime(at)
	if err != nil {
		return nil, err
	}
	return &scheduling.Appointment{
		PatientID:      patientID,
		ExamID:         examID,
		UnitID:         unitID,
		ProfessionalID: professionalID,
		ScheduledAt:    scheduledAt,
	}, nil
}

func printAppointments(w io.Writer, items []*scheduling.Appointment) error {
	tw := newTable(w, "ID", "WHEN", "STATUS", "PATIENT", "EXAM", "UNIT", "PROFESSIONAL", "DOCS", "REQS")
	for _, a := range items {
		tw.row(a.ID, a.ScheduledAt, string(a.Status), a.PatientName, a.ExamName, a.UnitAddress,
			a.ProfessionalName, a.DocumentsOK, a.RequirementsOK)
	}
	return tw.flush()
}

func resultsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "results", Short: "Record exam results"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List results, newest appointment first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				items, err := a.sched.ListResults(ctx)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "ID", "WHEN", "PATIENT", "EXAM", "FINDINGS", "RECOMMENDATIONS")
				for _, r := range items {
					tw.row(r.ID, r.ScheduledAt, r.PatientName, r.ExamName, r.Findings, r.Recommendations)
				}
				return tw.flush()
			})
		},
	})

	add := &cobra.Command{
		Use:   "add",
		Short: "Record the result of a completed appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			apptID, err := uuidFlag(cmd, "appointment")
			if err != nil {
				return err
			}
			findings, _ := cmd.Flags().GetString("findings")
			res := &scheduling.Result{
				AppointmentID:   apptID,
				Findings:        findings,
				Recommendations: optString(cmd, "recommendations"),
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.sched.CreateResult(ctx, res); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Result %s recorded.\n", res.ID)
				return nil
			})
		},
	}
	add.Flags().String("appointment", "", "Appointment id")
	add.Flags().String("findings", "", "Findings")
	add.Flags().String("recommendations", "", "Recommendations")
	cmd.AddCommand(add)
	return cmd
}

func reportsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "reports", Short: "Print the predefined reports"}

	cmd.AddCommand(&cobra.Command{
		Use:   "upcoming",
		Short: "Upcoming exams with priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				rows, err := a.reports.Upcoming(ctx)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "PRIORITY", "WHEN", "PATIENT", "EXAM", "UNIT")
				for _, r := range rows {
					tw.row(r.Priority, r.ScheduledAt, r.Patient, r.Exam, r.Unit)
				}
				return tw.flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "by-professional",
		Short: "Appointment counts per professional and exam",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				rows, err := a.reports.ByProfessional(ctx)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "PROFESSIONAL", "EXAM", "TOTAL")
				for _, r := range rows {
					tw.row(r.Professional, r.Exam, r.Total)
				}
				return tw.flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "by-company",
		Short: "Patients grouped by employer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				rows, err := a.reports.ByCompany(ctx)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "COMPANY", "PATIENT", "CPF", "BIRTH DATE")
				for _, r := range rows {
					tw.row(r.Company, r.Patient, r.CPF, r.BirthDate.Format(time.DateOnly))
				}
				return tw.flush()
			})
		},
	})
	return cmd
}

func registryCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "registry", Short: "Companies, units and professionals"}

	cmd.AddCommand(&cobra.Command{
		Use:   "companies",
		Short: "List companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				items, err := a.registry.ListCompanies(ctx)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "CNPJ", "PHONE", "ADDRESS")
				for _, c := range items {
					tw.row(c.ID, c.Name, c.CNPJ, c.Phone, c.Address)
				}
				return tw.flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "units",
		Short: "List units",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				items, err := a.registry.ListUnits(ctx)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "ID", "ADDRESS")
				for _, u := range items {
					tw.row(u.ID, u.Address)
				}
				return tw.flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "professionals",
		Short: "List professionals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				items, err := a.registry.ListProfessionals(ctx)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "SPECIALTY")
				for _, p := range items {
					tw.row(p.ID, p.Name, p.Specialty)
				}
				return tw.flush()
			})
		},
	})
	return cmd
}
