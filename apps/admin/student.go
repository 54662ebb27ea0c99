package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/trezcool/libwork/core/lifecycle"
	"github.com/trezcool/libwork/core/student"
)

func (cli *commandLine) listStudents() error {
	students, err := cli.svc.List(context.Background(), cli.sess)
	if err != nil {
		return cli.report(err)
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMOBILE\tSTATUS")
	for _, stdt := range students {
		status := "active"
		if !stdt.IsActive() {
			status = "removed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", stdt.ID, stdt.DisplayName(), stdt.Mobile, status)
	}
	return w.Flush()
}

func (cli *commandLine) addStudent(name, father, address, mobile, admitted string) error {
	out, err := cli.svc.Enroll(context.Background(), cli.sess, student.NewStudent{
		Details:       student.Details{FullName: name, FatherName: father, Address: address},
		Mobile:        mobile,
		AdmissionDate: admitted,
	})
	if err != nil {
		return cli.report(err)
	}
	fmt.Fprintln(cli.out, out.Message)
	return nil
}

func (cli *commandLine) transition(id string, req lifecycle.TransitionRequest) error {
	out, err := cli.svc.Apply(context.Background(), cli.sess, id, req)
	if err != nil {
		return cli.report(err)
	}
	fmt.Fprintln(cli.out, out.Message)
	return nil
}
