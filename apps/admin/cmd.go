package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/trezcool/libwork/core"
	"github.com/trezcool/libwork/core/auth"
	"github.com/trezcool/libwork/core/lifecycle"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	nowFunc          = time.Now          // mockable

	errHelp       = errors.New("help provided")
	errNoDatabase = errors.New("migrate needs the postgres store")
)

type commandLine struct {
	db      *sql.DB // nil with the memory store
	out     io.Writer
	sess    auth.Session
	svc     *lifecycle.Service
	authSvc *auth.Service
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  students - list every student, removed ones included")
	fmt.Fprintln(cli.out, "  addstudent -name NAME -father NAME -address ADDRESS -mobile MOBILE [-date YYYY-MM-DD] - enroll a student")
	fmt.Fprintln(cli.out, "  transition -id ID -action edit|remove|reactivate [-name NAME -father NAME -address ADDRESS] [-confirm] - change a student; the admin password will be prompted next")
	fmt.Fprintln(cli.out, "  setowner -mobile MOBILE - set the owner login; the password will be prompted next")
}

// prompt reads a secret from the terminal without echoing it.
func (cli *commandLine) prompt(label string) (string, error) {
	fmt.Fprint(cli.out, label)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addStudentCmd := flag.NewFlagSet("addstudent", flag.ContinueOnError)
	addStudentCmd.SetOutput(cli.out)
	addStudentName := addStudentCmd.String("name", "", "The student's full name.")
	addStudentFather := addStudentCmd.String("father", "", "The student's father name.")
	addStudentAddress := addStudentCmd.String("address", "", "The student's address.")
	addStudentMobile := addStudentCmd.String("mobile", "", "The student's 10 digit mobile number.")
	addStudentAdmitted := addStudentCmd.String("date", "", "The admission date, YYYY-MM-DD. Defaults to today.")

	transitionCmd := flag.NewFlagSet("transition", flag.ContinueOnError)
	transitionCmd.SetOutput(cli.out)
	transitionID := transitionCmd.String("id", "", "The student's id.")
	transitionAction := transitionCmd.String("action", "", "One of edit, remove, reactivate.")
	transitionName := transitionCmd.String("name", "", "The full name to set (edit & reactivate).")
	transitionFather := transitionCmd.String("father", "", "The father name to set (edit & reactivate).")
	transitionAddress := transitionCmd.String("address", "", "The address to set (edit & reactivate).")
	transitionConfirm := transitionCmd.Bool("confirm", false, "Confirm a remove or reactivate.")

	setOwnerCmd := flag.NewFlagSet("setowner", flag.ContinueOnError)
	setOwnerCmd.SetOutput(cli.out)
	setOwnerMobile := setOwnerCmd.String("mobile", "", "The owner's mobile number. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "students":
		return cli.listStudents()

	case "addstudent":
		if err := addStudentCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addStudentMobile == "" {
			addStudentCmd.Usage()
			return errHelp
		}
		admitted := *addStudentAdmitted
		if admitted == "" {
			admitted = nowFunc().Format("2006-01-02")
		}
		return cli.addStudent(*addStudentName, *addStudentFather, *addStudentAddress, *addStudentMobile, admitted)

	case "transition":
		if err := transitionCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *transitionID == "" || *transitionAction == "" {
			transitionCmd.Usage()
			return errHelp
		}
		secret, err := cli.prompt("Enter admin password:")
		if err != nil {
			return err
		}
		return cli.transition(*transitionID, lifecycle.TransitionRequest{
			Action:      lifecycle.Action(*transitionAction),
			Confirmed:   *transitionConfirm,
			FullName:    *transitionName,
			FatherName:  *transitionFather,
			Address:     *transitionAddress,
			AdminSecret: secret,
		})

	case "setowner":
		if err := setOwnerCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setOwnerMobile == "" {
			setOwnerCmd.Usage()
			return errHelp
		}
		pwd, err := cli.prompt("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			setOwnerCmd.Usage()
			return errHelp
		}
		return cli.setOwner(*setOwnerMobile, pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}

// report prints the operator message of err and returns it.
func (cli *commandLine) report(err error) error {
	if err != nil {
		fmt.Fprintln(cli.out, core.OperatorMessage(err))
	}
	return err
}
